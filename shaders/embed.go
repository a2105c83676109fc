// Package shaders embeds the default fragment catalogue: hash fragments under hash/, 2D noise
// fragments under noise/2d/, and the hash_list.txt and noise_list.txt indexes naming them.
package shaders

import "embed"

// FS holds the default catalogue. Paths are relative to this directory, e.g. "hash/fasthash.wgsl".
//
//go:embed hash/*.wgsl noise/2d/*.wgsl hash_list.txt noise_list.txt
var FS embed.FS
