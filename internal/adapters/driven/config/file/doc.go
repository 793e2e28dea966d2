// Package file keeps sercha-rag settings and prompt overrides on disk.
//
// ConfigStore reads and writes config.toml with dotted keys such as
// "pipeline.chunk_size". PromptStore serves prompt templates from a
// directory, falling back to the compiled-in defaults when a file is absent.
package file
