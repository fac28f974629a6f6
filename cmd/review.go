package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ahogan/jobhunter/internal/job"
)

const (
	promptApprove = "Approve"
	promptSkip    = "Skip"
	promptQuit    = "Quit"

	promptYes = "Yes"
	promptNo  = "No"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review high-scoring postings, approve them, and generate cover letters",
	Run: func(_ *cobra.Command, _ []string) {
		review()
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func review() {
	ctx := context.Background()

	p, err := setup()
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	defer p.close()

	pending, err := p.store.ListPendingReview(ctx, p.cfg.Thresh.High)
	if err != nil {
		p.logger.Fatal("listing postings for review", zap.Error(err))
	}

	if len(pending) == 0 {
		fmt.Println("Nothing to review.")
		return
	}

	fmt.Printf("%d posting(s) awaiting review\n\n", len(pending))

	approved := 0
	for i, sp := range pending {
		printReviewCard(i+1, len(pending), sp)

		prompt := promptui.Select{
			Label: "Decision",
			Items: []string{promptApprove, promptSkip, promptQuit},
		}
		_, action, err := prompt.Run()
		if err != nil {
			p.logger.Fatal("reading decision", zap.Error(err))
		}

		if action == promptQuit {
			break
		}
		if action == promptApprove {
			if err := p.store.MarkApproved(ctx, sp.ID); err != nil {
				p.logger.Fatal("approving posting", zap.Error(err))
			}
			approved++
		}
	}

	fmt.Printf("\nApproved %d posting(s).\n", approved)

	missing, err := p.store.ListApprovedWithoutDraft(ctx)
	if err != nil {
		p.logger.Fatal("listing approved postings", zap.Error(err))
	}
	if len(missing) == 0 {
		return
	}

	confirm := promptui.Select{
		Label: fmt.Sprintf("Generate cover letters for %d approved posting(s)?", len(missing)),
		Items: []string{promptYes, promptNo},
	}
	_, answer, err := confirm.Run()
	if err != nil || answer != promptYes {
		return
	}

	scorer, err := p.newScorer(ctx)
	if err != nil {
		p.logger.Fatal("creating scorer", zap.Error(err))
	}

	for _, sp := range missing {
		draft, err := scorer.CoverLetter(ctx, sp.Posting, sp.KeyRequirements)
		if err != nil {
			p.logger.Warn("cover letter generation failed",
				zap.String("title", sp.Posting.Title),
				zap.Error(err),
			)
			continue
		}
		if err := p.store.SetCoverLetter(ctx, sp.ID, draft); err != nil {
			p.logger.Fatal("saving cover letter", zap.Error(err))
		}
		fmt.Printf("Cover letter drafted for %s at %s\n", sp.Posting.Title, sp.Posting.Company)
	}
}

func printReviewCard(n, total int, sp *job.ScoredPosting) {
	p := sp.Posting
	fmt.Printf("[%d/%d] %s\n", n, total, p.Title)
	fmt.Printf("  %s • %s\n", p.Company, orNA(p.Location))
	fmt.Printf("  Score %d/100 • Ghost risk %d%% • %s\n", sp.FitScore, sp.GhostJobLikelihood, sp.RoleCategory.Label())
	if p.SalaryRange != "" {
		fmt.Printf("  Salary: %s\n", p.SalaryRange)
	}
	fmt.Printf("  %s\n", p.URL)
	if sp.AIReasoning != "" {
		fmt.Printf("  %s\n", sp.AIReasoning)
	}
	if len(sp.KeyRequirements) > 0 {
		fmt.Printf("  Requirements: %s\n", strings.Join(sp.KeyRequirements, "; "))
	}
	fmt.Println()
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
