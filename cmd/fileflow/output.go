package main

import "fileflow/internal/tui/styles"

func successText(s string) string { return styles.Theme.Success.Render(s) }
func errorText(s string) string   { return styles.Theme.Error.Render(s) }
func mutedText(s string) string   { return styles.Theme.Muted.Render(s) }
