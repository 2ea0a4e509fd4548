package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"portfolio-backend-go/internal/services"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// seedFile is the layout of a seed document: the profile plus the form
// payloads of every collection.
type seedFile struct {
	About          *services.AboutForm       `json:"about"`
	Skills         []services.SkillForm      `json:"skills"`
	Projects       []services.ProjectForm    `json:"projects"`
	Experiences    []services.ExperienceForm `json:"experiences"`
	Qualifications []services.EducationForm  `json:"qualifications"`
}

func (s seedFile) forms() []services.Form {
	forms := make([]services.Form, 0, len(s.Skills)+len(s.Projects)+len(s.Experiences)+len(s.Qualifications))
	for _, f := range s.Skills {
		forms = append(forms, f)
	}
	for _, f := range s.Projects {
		forms = append(forms, f)
	}
	for _, f := range s.Experiences {
		forms = append(forms, f)
	}
	for _, f := range s.Qualifications {
		forms = append(forms, f)
	}
	return forms
}

//nolint:gochecknoglobals // Cobra boilerplate
var seedCmd = &cobra.Command{
	Use:   "seed <file.json>",
	Short: "Load portfolio content from a JSON file",
	Long: `Load the profile and collection items from a JSON file. Every item goes
through the same validation as the admin API. Use "-" to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(seedCmd)
}

func readSeed(path string) (seedFile, error) {
	var in io.Reader = os.Stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return seedFile{}, errors.Wrap(err, "open seed file")
		}
		defer file.Close()
		in = file
	}
	var seed seedFile
	if err := json.NewDecoder(in).Decode(&seed); err != nil {
		return seedFile{}, errors.Wrap(err, "decode seed file")
	}
	return seed, nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	seed, err := readSeed(args[0])
	if err != nil {
		return err
	}
	docs, err := openDocstore(cmd.Context())
	if err != nil {
		return err
	}
	defer docs.Close()

	added, err := applySeed(cmd.Context(), services.NewPortfolio(docs), seed)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d items\n", added)
	return nil
}

// applySeed stops at the first rejected item.
func applySeed(ctx context.Context, portfolio *services.Portfolio, seed seedFile) (int, error) {
	if seed.About != nil {
		if result := portfolio.UpdateAbout(ctx, *seed.About); !result.Success {
			return 0, errors.Errorf("about: %s", result.Message)
		}
	}
	if err := portfolio.EnsureViewStats(ctx); err != nil {
		return 0, errors.Wrap(err, "view stats")
	}
	added := 0
	for i, form := range seed.forms() {
		result := portfolio.AddItem(ctx, form)
		if !result.Success {
			return added, errors.Errorf("%s #%d: %s", form.Collection(), i+1, result.Message)
		}
		added++
	}
	return added, nil
}
