package server

import "github.com/cyclopcam/dbh"

type Config struct {
	DB            dbh.DBConfig  `json:"db"`
	AdminPassword string        `json:"adminPassword"`
	Content       ContentConfig `json:"content"`
	WWWRoot       string        `json:"wwwRoot"` // Path to the static frontend files. Empty disables static serving.
}

// ContentConfig points at the GitHub repository that holds the study
// material. The three folder names are relative to the repository root;
// an empty folder name disables that material category.
type ContentConfig struct {
	Owner      string `json:"owner"`
	Repo       string `json:"repo"`
	Token      string `json:"token"` // Optional. Raises the API rate limit and allows private repos.
	Flashcards string `json:"flashcards"`
	Maps       string `json:"maps"`
	SSM        string `json:"ssm"` // Study support material (PDFs)
}
