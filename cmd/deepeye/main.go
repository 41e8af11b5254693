// Package main provides the entry point for the DeepEye CLI.
//
// DeepEye is a web reconnaissance and vulnerability scanning tool.
// It crawls a target site, runs passive security checks against every
// fetched page, and reports findings with optional AI-assisted analysis.
//
// Usage:
//
//	deepeye scan https://example.com
//	deepeye history https://example.com
//
// See --help for all available options.
package main

// main is the entry point for DeepEye.
func main() {
	Execute()
}
