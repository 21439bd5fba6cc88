// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package web

import (
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/auth"
)

func TestViews_RenderAllPages(t *testing.T) {
	views, err := NewViews()
	require.NoError(t, err)

	user := &auth.User{
		ID:        ulid.Make(),
		Username:  "alice",
		Email:     "alice@example.com",
		CreatedAt: time.Now(),
	}

	tests := []struct {
		page string
		data pageData
		want string
	}{
		{"home", pageData{Title: "Home"}, "You are not logged in"},
		{"home", pageData{Title: "Home", User: user}, "alice"},
		{"secret", pageData{Title: "Secret", User: user}, "alice@example.com"},
		{"signup", pageData{Title: "Sign up"}, `name="confirm_password"`},
		{"login", pageData{Title: "Log in"}, `name="email"`},
		{"reset-password", pageData{Title: "Reset password"}, `name="email"`},
		{"reset", pageData{Title: "Choose a new password", Token: "abc123"}, "/reset/abc123/"},
	}

	for _, tt := range tests {
		t.Run(tt.page, func(t *testing.T) {
			var sb strings.Builder
			require.NoError(t, views.Render(&sb, tt.page, tt.data))
			assert.Contains(t, sb.String(), tt.want)
			assert.Contains(t, sb.String(), tt.data.Title)
		})
	}
}

func TestViews_RenderFlash(t *testing.T) {
	views, err := NewViews()
	require.NoError(t, err)

	var sb strings.Builder
	data := pageData{
		Title: "Log in",
		Flash: &auth.Flash{Kind: auth.FlashError, Message: "Incorrect Password"},
	}
	require.NoError(t, views.Render(&sb, "login", data))
	assert.Contains(t, sb.String(), "Incorrect Password")
	assert.Contains(t, sb.String(), "flash-error")
}

func TestViews_RenderUnknownPage(t *testing.T) {
	views, err := NewViews()
	require.NoError(t, err)

	err = views.Render(&strings.Builder{}, "nope", pageData{})
	assert.Error(t, err)
}

func TestViews_EscapesUserInput(t *testing.T) {
	views, err := NewViews()
	require.NoError(t, err)

	var sb strings.Builder
	data := pageData{
		Title: "Secret",
		User: &auth.User{
			ID:       ulid.Make(),
			Username: "<script>alert(1)</script>",
			Email:    "x@example.com",
		},
	}
	require.NoError(t, views.Render(&sb, "secret", data))
	assert.NotContains(t, sb.String(), "<script>")
}
