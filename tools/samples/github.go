package samples

import (
	"context"
)

// GitHubRepoInput is the input of the github_repo tool.
type GitHubRepoInput struct {
	RepoURL string `json:"repo_url" jsonschema:"description=The GitHub repository URL"`
}

// Description returns the default description of the github_repo tool.
func (GitHubRepoInput) Description() string {
	return "Fetch GitHub repository information."
}

// GitHubRepoInfo describes a repository.
type GitHubRepoInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Stars       int      `json:"stars"`
	Forks       int      `json:"forks"`
	Language    string   `json:"language"`
	URL         string   `json:"url"`
	Topics      []string `json:"topics"`
}

// GitHubRepo returns mock repository information.
func GitHubRepo(_ context.Context, in *GitHubRepoInput) (*GitHubRepoInfo, error) {
	return &GitHubRepoInfo{
		Name:        "example-repo",
		Description: "An example repository for demonstration",
		Stars:       1234,
		Forks:       567,
		Language:    "Python",
		URL:         in.RepoURL,
		Topics:      []string{"python", "ai", "langchain"},
	}, nil
}
