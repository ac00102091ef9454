package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"github.com/teemow/dropboxmcp/internal/dropbox"
	"github.com/teemow/dropboxmcp/internal/server"
	"github.com/teemow/dropboxmcp/internal/tools/dropbox_tools"
)

const (
	categoryReadOnly = "Read-only Tools"
	categoryWrite    = "Write Tools"
)

func newGenerateDocsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
This command introspects the registered tools and outputs their documentation
in markdown format, ensuring the documentation is always accurate and in sync
with the actual tool implementations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

// registeredTools returns every tool definition sorted by name. No Dropbox
// request is made; the client is only needed to build the server context.
func registeredTools() ([]mcp.Tool, error) {
	ctx := context.Background()
	client, err := dropbox.NewClient(ctx, dropbox.Config{AccessToken: "unused"})
	if err != nil {
		return nil, fmt.Errorf("failed to create Dropbox client: %w", err)
	}

	serverContext, err := server.NewServerContext(ctx, client, server.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	mcpSrv, err := newMCPServer(serverContext, false)
	if err != nil {
		return nil, err
	}

	serverTools := mcpSrv.ListTools()
	tools := make([]mcp.Tool, 0, len(serverTools))
	for _, serverTool := range serverTools {
		tools = append(tools, serverTool.Tool)
	}
	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Name < tools[j].Name
	})
	return tools, nil
}

func runGenerateDocs(outputFile string) error {
	tools, err := registeredTools()
	if err != nil {
		return err
	}

	markdown := generateToolsMarkdown(tools)

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
	} else {
		fmt.Print(markdown)
	}

	return nil
}

func generateToolsMarkdown(tools []mcp.Tool) string {
	var sb strings.Builder

	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("This document provides a complete reference of all tools available when running dropboxmcp as an MCP server.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")

	toolsByCategory := groupToolsByCategory(tools)

	sb.WriteString("## Table of Contents\n\n")
	categories := []string{categoryReadOnly, categoryWrite}
	for _, category := range categories {
		if len(toolsByCategory[category]) == 0 {
			continue
		}
		anchor := strings.ToLower(strings.ReplaceAll(category, " ", "-"))
		sb.WriteString(fmt.Sprintf("- [%s](#%s)\n", category, anchor))
	}
	sb.WriteString("\n")

	sb.WriteString("## Read-only Mode\n\n")
	sb.WriteString("With `serve --read-only` only the read-only tools are registered.\n\n")

	for _, category := range categories {
		categoryTools := toolsByCategory[category]
		if len(categoryTools) == 0 {
			continue
		}

		sb.WriteString(fmt.Sprintf("## %s\n\n", category))
		for _, tool := range categoryTools {
			sb.WriteString(generateToolMarkdown(tool))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func groupToolsByCategory(tools []mcp.Tool) map[string][]mcp.Tool {
	categories := make(map[string][]mcp.Tool)
	for _, tool := range tools {
		category := categoryWrite
		if dropbox_tools.IsReadOnlyTool(tool.Name) {
			category = categoryReadOnly
		}
		categories[category] = append(categories[category], tool)
	}
	return categories
}

func generateToolMarkdown(tool mcp.Tool) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("### %s\n\n", tool.Name))

	if tool.Description != "" {
		sb.WriteString(fmt.Sprintf("%s\n\n", tool.Description))
	}

	if len(tool.InputSchema.Properties) > 0 {
		sb.WriteString("**Arguments:**\n")

		propNames := make([]string, 0, len(tool.InputSchema.Properties))
		for name := range tool.InputSchema.Properties {
			propNames = append(propNames, name)
		}
		sort.Strings(propNames)

		for _, name := range propNames {
			propMap, ok := tool.InputSchema.Properties[name].(map[string]interface{})
			if !ok {
				continue
			}

			requiredStr := "optional"
			if contains(tool.InputSchema.Required, name) {
				requiredStr = "required"
			}
			propType := getPropertyType(propMap)

			sb.WriteString(fmt.Sprintf("- `%s` (%s, %s): ", name, propType, requiredStr))
			if desc, ok := propMap["description"].(string); ok {
				sb.WriteString(desc)
			} else {
				sb.WriteString(fmt.Sprintf("%s parameter", propType))
			}
			if def, ok := propMap["default"]; ok {
				sb.WriteString(fmt.Sprintf(" Default: `%v`.", def))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func getPropertyType(prop map[string]interface{}) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
