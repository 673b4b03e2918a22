// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes read-only restdown query tools via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nemorize/restdown/internal/apperr"
	"github.com/nemorize/restdown/internal/models"
	"github.com/nemorize/restdown/internal/postservice"
)

const formatURI = "restdown://post-format"

// Server wraps the MCP server with restdown tools.
type Server struct {
	mcp *server.MCPServer
	svc *postservice.Service
}

// New creates a new MCP server with all restdown tools registered.
func New(svc *postservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"restdown",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_posts", withPageParams(
		mcp.WithDescription("List posts newest first, with rendered HTML content. "+
			"Optionally filter by a case-insensitive title substring."),
	)...), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("get_post",
		mcp.WithDescription("Get one post, including its rendered HTML, by slug."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Post slug as returned by list_posts")),
	), s.getPost)

	s.mcp.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("List every category with its post count."),
	), s.listCategories)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List every tag with its post count."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("list_category_posts", withPageParams(
		mcp.WithDescription("List posts in a category (e.g. blog or dev/go), newest first."),
		mcp.WithString("category", mcp.Required(), mcp.Description("Category name")),
	)...), s.listCategoryPosts)

	s.mcp.AddTool(mcp.NewTool("list_tag_posts", withPageParams(
		mcp.WithDescription("List posts carrying a tag, newest first."),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag name")),
	)...), s.listTagPosts)

	s.mcp.AddTool(mcp.NewTool("get_post_format",
		mcp.WithDescription("Returns how restdown derives post metadata (slug, title, dates, "+
			"categories, tags, extras) from a markdown document."),
	), s.getPostFormat)

	// Resource: post format contract.
	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Post Format",
			mcp.WithResourceDescription("How markdown documents map onto restdown posts."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPostFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// withPageParams appends the offset/limit/query parameters to opts.
func withPageParams(opts ...mcp.ToolOption) []mcp.ToolOption {
	return append(opts,
		mcp.WithNumber("offset", mcp.Description("Number of posts to skip (>= 0, default 0)")),
		mcp.WithNumber("limit", mcp.Description("Page size (1-100, default 10)")),
		mcp.WithString("query", mcp.Description("Optional case-insensitive title filter")),
	)
}

func pageFrom(req mcp.CallToolRequest) (models.Page, error) {
	page := models.Page{
		Offset: req.GetInt("offset", models.DefaultOffset),
		Limit:  req.GetInt("limit", models.DefaultLimit),
		Query:  req.GetString("query", ""),
	}
	return page, page.Validate()
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func errorResult(err error, what string) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", what))
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) listPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := pageFrom(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.ListPosts(ctx, page)
	if err != nil {
		return errorResult(err, ""), nil
	}
	return jsonResult(res)
}

func (s *Server) getPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	post, err := s.svc.GetPost(ctx, slug)
	if err != nil {
		return errorResult(err, slug), nil
	}
	return jsonResult(post)
}

func (s *Server) listCategories(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cats, err := s.svc.ListCategories(ctx)
	if err != nil {
		return errorResult(err, ""), nil
	}
	return jsonResult(cats)
}

func (s *Server) listTags(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.svc.ListTags(ctx)
	if err != nil {
		return errorResult(err, ""), nil
	}
	return jsonResult(tags)
}

func (s *Server) listCategoryPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category, err := req.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := pageFrom(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.ListCategoryPosts(ctx, category, page)
	if err != nil {
		return errorResult(err, category), nil
	}
	return jsonResult(res)
}

func (s *Server) listTagPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := pageFrom(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.ListTagPosts(ctx, tag, page)
	if err != nil {
		return errorResult(err, tag), nil
	}
	return jsonResult(res)
}

func (s *Server) getPostFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PostFormatContract), nil
}

func (s *Server) readPostFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     PostFormatContract,
		},
	}, nil
}
