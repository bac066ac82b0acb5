// Example program demonstrating the gitconverge library API.
//
// Run from the repo root:
//
//	go run ./example/
//
// With release reconciliation (set GITHUB_TOKEN and EXAMPLE_REPO=owner/repo first):
//
//	GITHUB_TOKEN=ghp_xxx EXAMPLE_REPO=acme/widgets go run ./example/
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/MyCarrier-DevOps/go-gitconverge/pkg/sdk"
)

func main() {
	ctx := context.Background()
	remoteBranches(ctx)

	if os.Getenv("GITHUB_TOKEN") != "" && os.Getenv("EXAMPLE_REPO") != "" {
		release(ctx, os.Getenv("EXAMPLE_REPO"))
	}
}

func remoteBranches(ctx context.Context) {
	client, err := sdk.NewGitClient(sdk.GitOptions{Path: "."})
	if err != nil {
		log.Fatalf("creating git client: %v", err)
	}
	branches, err := client.EnumerateRemoteBranches(ctx)
	if err != nil {
		log.Fatalf("listing branches failed: %v", err)
	}

	fmt.Println("=== Remote Branches ===")
	for _, b := range branches {
		fmt.Println(b)
	}
	fmt.Println()
}

func release(ctx context.Context, repository string) {
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok {
		log.Fatalf("EXAMPLE_REPO must be owner/repo, got %q", repository)
	}

	state, err := sdk.GetRelease(ctx, sdk.GitHubOptions{Token: os.Getenv("GITHUB_TOKEN")}, owner, repo, "v0.0.1-example")
	if err != nil {
		log.Fatalf("reading release failed: %v", err)
	}

	fmt.Println("=== Release v0.0.1-example ===")
	fmt.Printf("%-12s %t\n", "Exists", state.Exists)
	if state.Exists {
		fmt.Printf("%-12s %s\n", "Title", state.Title)
		fmt.Printf("%-12s %s\n", "URL", state.URL)
	}
}
