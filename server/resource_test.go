package server

import (
	"context"
	"errors"
	"testing"

	"github.com/cliforge/mcp-adapter/protocol"
)

func TestReadResourceExact(t *testing.T) {
	srv := New(Info{Name: "s", Version: "1"})

	srv.Resource("config://app").
		Name("App config").
		MimeType("application/json").
		Handler(func(_ context.Context, uri string, vars map[string]string) (*ResourceContent, error) {
			if len(vars) != 0 {
				t.Errorf("exact resource received variables %v", vars)
			}
			return &ResourceContent{URI: uri, MimeType: "application/json", Text: `{"debug":false}`}, nil
		})

	content, err := srv.ReadResource(context.Background(), "config://app")
	if err != nil {
		t.Fatalf("ReadResource() error = %v", err)
	}
	if content.Text != `{"debug":false}` {
		t.Errorf("Text = %q", content.Text)
	}
}

func TestReadResourceMetadataOnly(t *testing.T) {
	srv := New(Info{Name: "s", Version: "1"})
	srv.Resource("docs://changelog").Name("Changelog").Register()

	_, err := srv.ReadResource(context.Background(), "docs://changelog")
	var perr *protocol.Error
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *protocol.Error", err)
	}
	if perr.Code != protocol.CodeNotReadable {
		t.Errorf("code = %d, want %d", perr.Code, protocol.CodeNotReadable)
	}
}

func TestReadResourceNotFound(t *testing.T) {
	srv := New(Info{Name: "s", Version: "1"})

	_, err := srv.ReadResource(context.Background(), "missing://thing")
	var perr *protocol.Error
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *protocol.Error", err)
	}
	if perr.Code != protocol.CodeNotFound {
		t.Errorf("code = %d, want %d", perr.Code, protocol.CodeNotFound)
	}
	if perr.Data.(map[string]any)["uri"] != "missing://thing" {
		t.Errorf("data uri = %v", perr.Data)
	}
}

func TestReadResourceTemplateMatch(t *testing.T) {
	srv := New(Info{Name: "s", Version: "1"})

	srv.ResourceTemplate("logs://{service}/{date}").
		Name("Service logs").
		Handler(func(_ context.Context, uri string, vars map[string]string) (*ResourceContent, error) {
			return &ResourceContent{URI: uri, Text: vars["service"] + "@" + vars["date"]}, nil
		})

	content, err := srv.ReadResource(context.Background(), "logs://api/2026-08-25")
	if err != nil {
		t.Fatalf("ReadResource() error = %v", err)
	}
	if content.Text != "api@2026-08-25" {
		t.Errorf("Text = %q, want extracted variables", content.Text)
	}
}

func TestReadResourceExactBeforeTemplate(t *testing.T) {
	srv := New(Info{Name: "s", Version: "1"})

	srv.ResourceTemplate("files://{name}").
		Handler(func(_ context.Context, uri string, _ map[string]string) (*ResourceContent, error) {
			return &ResourceContent{URI: uri, Text: "from template"}, nil
		})
	srv.Resource("files://special").
		Handler(func(_ context.Context, uri string, _ map[string]string) (*ResourceContent, error) {
			return &ResourceContent{URI: uri, Text: "from exact"}, nil
		})

	content, err := srv.ReadResource(context.Background(), "files://special")
	if err != nil {
		t.Fatalf("ReadResource() error = %v", err)
	}
	if content.Text != "from exact" {
		t.Errorf("Text = %q, want exact resource to shadow the template", content.Text)
	}
}

func TestReadResourceFirstTemplateWins(t *testing.T) {
	srv := New(Info{Name: "s", Version: "1"})

	srv.ResourceTemplate("data://{a}/{b}").
		Handler(func(_ context.Context, uri string, _ map[string]string) (*ResourceContent, error) {
			return &ResourceContent{URI: uri, Text: "first"}, nil
		})
	srv.ResourceTemplate("data://{x}/{y}").
		Handler(func(_ context.Context, uri string, _ map[string]string) (*ResourceContent, error) {
			return &ResourceContent{URI: uri, Text: "second"}, nil
		})

	content, err := srv.ReadResource(context.Background(), "data://1/2")
	if err != nil {
		t.Fatalf("ReadResource() error = %v", err)
	}
	if content.Text != "first" {
		t.Errorf("Text = %q, want the first registered template to win", content.Text)
	}
}

func TestReadResourceHandlerErrors(t *testing.T) {
	srv := New(Info{Name: "s", Version: "1"})

	srv.Resource("fail://category").
		Handler(func(_ context.Context, _ string, _ map[string]string) (*ResourceContent, error) {
			return nil, NewError(CategoryPermission, "access denied")
		})
	srv.Resource("fail://panic").
		Handler(func(_ context.Context, _ string, _ map[string]string) (*ResourceContent, error) {
			panic("reader exploded")
		})

	t.Run("category error translates", func(t *testing.T) {
		_, err := srv.ReadResource(context.Background(), "fail://category")
		var perr *protocol.Error
		if !errors.As(err, &perr) {
			t.Fatalf("error = %v, want *protocol.Error", err)
		}
		if perr.Code != protocol.CodeUnauthorized {
			t.Errorf("code = %d, want %d", perr.Code, protocol.CodeUnauthorized)
		}
	})

	t.Run("panic contained", func(t *testing.T) {
		_, err := srv.ReadResource(context.Background(), "fail://panic")
		var perr *protocol.Error
		if !errors.As(err, &perr) {
			t.Fatalf("error = %v, want *protocol.Error", err)
		}
		if perr.Code != protocol.CodeInternalError {
			t.Errorf("code = %d, want %d", perr.Code, protocol.CodeInternalError)
		}
		if perr.Data.(map[string]any)["thrown"] != true {
			t.Error("contained panic should be marked as thrown")
		}
	})
}

func TestResourceTemplateBuilderCompileError(t *testing.T) {
	srv := New(Info{Name: "s", Version: "1"})

	b := srv.ResourceTemplate("bad://{unclosed").
		Handler(func(_ context.Context, uri string, _ map[string]string) (*ResourceContent, error) {
			return &ResourceContent{URI: uri}, nil
		})

	// An unclosed brace compiles to a literal, so this template is valid.
	if b.Err() != nil {
		t.Fatalf("Err() = %v", b.Err())
	}

	content, err := srv.ReadResource(context.Background(), "bad://{unclosed")
	if err != nil {
		t.Fatalf("ReadResource() error = %v", err)
	}
	if content.URI != "bad://{unclosed" {
		t.Errorf("URI = %q", content.URI)
	}
}

func TestResourcesListing(t *testing.T) {
	srv := New(Info{Name: "s", Version: "1"})
	srv.Resource("a://1").Name("one").Register()
	srv.Resource("a://2").Name("two").Register()

	infos := srv.Resources()
	if len(infos) != 2 {
		t.Errorf("Resources() count = %d, want 2", len(infos))
	}
}
