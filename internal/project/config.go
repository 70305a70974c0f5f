// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file parses a configuration file into a Config.
package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/shadergrid/internal/builderr"
	"github.com/specialistvlad/shadergrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Config is the parsed configuration file.
type Config struct {
	// Path is the absolute path of the configuration file.
	Path string
	// Projects are the resolved projects in file order.
	Projects []*Settings
	Notify   *NotifyConfig
	Publish  *PublishConfig
}

// Project returns the project with the given name.
func (c *Config) Project(name string) (*Settings, bool) {
	for _, p := range c.Projects {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// NotifyConfig configures the socket.io rebuild notification.
type NotifyConfig struct {
	URL       string
	Path      string
	Namespace string
	Event     string
	Timeout   time.Duration
	Metadata  map[string]string
}

// PublishConfig configures uploads to S3-compatible storage.
type PublishConfig struct {
	Endpoint    string
	Region      string
	Bucket      string
	Prefix      string
	AccessKey   string
	SecretKey   string
	UseSSL      bool
	Parallelism int
}

// Notify and publish defaults.
const (
	DefaultNotifyPath      = "/socket.io/"
	DefaultNotifyNamespace = "/"
	DefaultNotifyEvent     = "shaders_rebuilt"
	DefaultNotifyTimeout   = 5 * time.Second
	DefaultParallelism     = 4
)

// hclFile represents the top-level structure of a configuration file.
type hclFile struct {
	Defaults []*hclBody    `hcl:"defaults,block"`
	Projects []*hclProject `hcl:"project,block"`
	Notify   []*hclNotify  `hcl:"notify,block"`
	Publish  []*hclPublish `hcl:"publish,block"`
}

type hclBody struct {
	Body hcl.Body `hcl:",remain"`
}

type hclProject struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

type hclNotify struct {
	Kind      string         `hcl:"kind,label"`
	URL       string         `hcl:"url,attr"`
	Path      *string        `hcl:"path,optional"`
	Namespace *string        `hcl:"namespace,optional"`
	Event     *string        `hcl:"event,optional"`
	Timeout   *string        `hcl:"timeout,optional"`
	Metadata  hcl.Expression `hcl:"metadata,optional"`
}

type hclPublish struct {
	Kind        string  `hcl:"kind,label"`
	Endpoint    string  `hcl:"endpoint,attr"`
	Bucket      string  `hcl:"bucket,attr"`
	Region      *string `hcl:"region,optional"`
	Prefix      *string `hcl:"prefix,optional"`
	AccessKey   *string `hcl:"access_key,optional"`
	SecretKey   *string `hcl:"secret_key,optional"`
	UseSSL      *bool   `hcl:"use_ssl,optional"`
	Parallelism *int    `hcl:"parallelism,optional"`
}

// Load reads and parses the configuration file at path.
func Load(ctx context.Context, path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %s: %w", path, err)
	}
	src, err := os.ReadFile(abs)
	if err != nil {
		return nil, &builderr.Error{Kind: builderr.ErrConfiguration, Msg: "failed to read config file", Err: err}
	}
	return Parse(ctx, src, abs)
}

// Parse parses configuration source. filename names the file in
// diagnostics and its directory is the base for relative paths.
func Parse(ctx context.Context, src []byte, filename string) (*Config, error) {
	logger := ctxlog.FromContext(ctx)
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, configError(filename, "failed to parse", diags)
	}

	baseDir := filepath.Dir(filename)
	evalCtx := newEvalContext(baseDir)

	var parsed hclFile
	diags = gohcl.DecodeBody(file.Body, evalCtx, &parsed)
	if diags.HasErrors() {
		return nil, configError(filename, "failed to decode", diags)
	}

	if len(parsed.Defaults) > 1 {
		return nil, builderr.Configf("%s: at most one defaults block is allowed, found %d", filename, len(parsed.Defaults))
	}
	var defaults Layer
	if len(parsed.Defaults) == 1 {
		if diags := gohcl.DecodeBody(parsed.Defaults[0].Body, evalCtx, &defaults); diags.HasErrors() {
			return nil, configError(filename, "failed to decode defaults", diags)
		}
	}

	cfg := &Config{Path: filename}
	seen := map[string]bool{}
	for _, p := range parsed.Projects {
		if seen[p.Name] {
			return nil, builderr.Configf("%s: project %q is defined twice", filename, p.Name)
		}
		seen[p.Name] = true

		var layer Layer
		if diags := gohcl.DecodeBody(p.Body, evalCtx, &layer); diags.HasErrors() {
			return nil, configError(filename, fmt.Sprintf("failed to decode project %q", p.Name), diags)
		}
		settings, err := Merge(defaults, layer).Resolve(p.Name, baseDir)
		if err != nil {
			return nil, err
		}
		logger.Debug("Project loaded.", "project", settings.String())
		cfg.Projects = append(cfg.Projects, settings)
	}
	if len(cfg.Projects) == 0 {
		return nil, builderr.Configf("%s: no project blocks found", filename)
	}

	var err error
	if cfg.Notify, err = decodeNotify(filename, parsed.Notify, evalCtx); err != nil {
		return nil, err
	}
	if cfg.Publish, err = decodePublish(filename, parsed.Publish); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeNotify(filename string, blocks []*hclNotify, evalCtx *hcl.EvalContext) (*NotifyConfig, error) {
	if len(blocks) == 0 {
		return nil, nil
	}
	if len(blocks) > 1 {
		return nil, builderr.Configf("%s: at most one notify block is allowed", filename)
	}
	b := blocks[0]
	if b.Kind != "socketio" {
		return nil, builderr.Configf("%s: unsupported notify kind %q, must be \"socketio\"", filename, b.Kind)
	}

	n := &NotifyConfig{
		URL:       b.URL,
		Path:      deref(b.Path, DefaultNotifyPath),
		Namespace: deref(b.Namespace, DefaultNotifyNamespace),
		Event:     deref(b.Event, DefaultNotifyEvent),
		Timeout:   DefaultNotifyTimeout,
	}
	if b.Timeout != nil {
		d, err := time.ParseDuration(*b.Timeout)
		if err != nil {
			return nil, builderr.Configf("%s: invalid notify timeout %q: %v", filename, *b.Timeout, err)
		}
		n.Timeout = d
	}

	if b.Metadata != nil {
		val, diags := b.Metadata.Value(evalCtx)
		if diags.HasErrors() {
			return nil, configError(filename, "failed to evaluate notify metadata", diags)
		}
		if !val.IsNull() {
			val, err := convert.Convert(val, cty.Map(cty.String))
			if err != nil {
				return nil, builderr.Configf("%s: notify metadata must be a map of strings: %v", filename, err)
			}
			if err := gocty.FromCtyValue(val, &n.Metadata); err != nil {
				return nil, builderr.Configf("%s: notify metadata: %v", filename, err)
			}
		}
	}
	return n, nil
}

func decodePublish(filename string, blocks []*hclPublish) (*PublishConfig, error) {
	if len(blocks) == 0 {
		return nil, nil
	}
	if len(blocks) > 1 {
		return nil, builderr.Configf("%s: at most one publish block is allowed", filename)
	}
	b := blocks[0]
	if b.Kind != "s3" {
		return nil, builderr.Configf("%s: unsupported publish kind %q, must be \"s3\"", filename, b.Kind)
	}
	p := &PublishConfig{
		Endpoint:    b.Endpoint,
		Bucket:      b.Bucket,
		Region:      deref(b.Region, ""),
		Prefix:      deref(b.Prefix, ""),
		AccessKey:   deref(b.AccessKey, ""),
		SecretKey:   deref(b.SecretKey, ""),
		Parallelism: DefaultParallelism,
	}
	if b.UseSSL != nil {
		p.UseSSL = *b.UseSSL
	}
	if b.Parallelism != nil {
		if *b.Parallelism < 1 {
			return nil, builderr.Configf("%s: publish parallelism must be at least 1", filename)
		}
		p.Parallelism = *b.Parallelism
	}
	return p, nil
}

func configError(filename, msg string, diags hcl.Diagnostics) error {
	return &builderr.Error{Kind: builderr.ErrConfiguration, Msg: fmt.Sprintf("%s: %s", msg, filename), Err: diags}
}
