// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package project loads the shadergrid HCL configuration: where shader
// sources live, where generated files go, which tools produce them, and the
// optional notify and publish integrations.
//
// # File Layout
//
//	defaults {
//	  generated_dir = "Generated"
//	  compiler {
//	    executable = "python"
//	    args       = [path_join(config_dir, "tools", "compile_shader.py")]
//	    tool_args  = ["--path_to_dxc", coalesce(env("DXC"), "dxc")]
//	  }
//	  generator {
//	    executable = "shadertable"
//	  }
//	}
//
//	project "engine" {
//	  source_dir = "Engine/Shaders"
//	}
//
//	notify "socketio" {
//	  url = "http://localhost:3000"
//	}
//
//	publish "s3" {
//	  endpoint = "localhost:9000"
//	  bucket   = "shaders"
//	}
//
// # Evaluation
//
// Expressions see the variable config_dir and the functions env, path_join,
// upper, lower, join, concat, format and coalesce. Relative paths are
// resolved against the directory of the configuration file.
//
// # Merging
//
// Each project's settings are Merge(defaults, project) followed by the
// built-in defaults. There is no other inheritance.
package project
