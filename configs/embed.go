// Package configs provides embedded configuration templates for docsift.
//
// Templates are embedded at build time using Go's //go:embed directive,
// so they ship inside the binary regardless of how it was installed.
//
// The templates are used by:
//   - cmd/docsift/cmd/init.go - creates .docsift.yaml in a project root
//   - cmd/docsift/cmd/config.go - creates the user config under ~/.config/docsift/
//
// Configuration hierarchy (see internal/config.Load):
//  1. Hardcoded defaults (internal/config.NewConfig)
//  2. User config (~/.config/docsift/config.yaml)
//  3. Project config (.docsift.yaml)
//  4. Environment variables (DOCSIFT_*)
//
// To change a template, edit the .yaml file in this directory and
// rebuild; the next build embeds the new content.
package configs

import _ "embed"

// UserConfigTemplate is the template for user/machine-level configuration,
// written by `docsift config init` to ~/.config/docsift/config.yaml.
// It holds settings that apply to every project on the machine, such as
// worker counts and logging.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is the template for project-level configuration,
// written by `docsift init` to .docsift.yaml in the project root. It
// holds settings that travel with the project, such as corpus roots and
// the state file location.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
