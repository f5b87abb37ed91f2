package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"scrape", "batch", "serve", "runs", "import"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "executive-web-scraper", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestScrapeCommand_Flags(t *testing.T) {
	require.NotNil(t, scrapeCmd.Flags().Lookup("out"))
	require.NotNil(t, scrapeCmd.Flags().Lookup("target"))
	assert.Error(t, scrapeCmd.Args(scrapeCmd, nil))
	assert.NoError(t, scrapeCmd.Args(scrapeCmd, []string{"acme.com"}))
}

func TestBatchCommand_Flags(t *testing.T) {
	flag := batchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "100", flag.DefValue)

	out := batchCmd.Flags().Lookup("out")
	require.NotNil(t, out)
	assert.Equal(t, "executives.csv", out.DefValue)

	for _, name := range []string{"input", "notion-db", "concurrency", "target"} {
		assert.NotNil(t, batchCmd.Flags().Lookup(name), name)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag)
	assert.Equal(t, "0", flag.DefValue)
}

func TestRunsCommand_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["list"])
	assert.True(t, names["show"])
}
