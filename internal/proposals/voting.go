package proposals

import (
	"context"
	"fmt"

	"group-service/internal/models"
	"group-service/internal/repositories"
	"group-service/internal/store"
)

func votesField(choice models.VoteChoice) string {
	return "votes." + string(choice)
}

func countField(choice models.VoteChoice) string {
	return string(choice) + "Count"
}

// open loads the proposal, settles it and checks that it still accepts votes from userID.
func (e *Engine) open(ctx context.Context, proposalID, userID string) (models.EventProposal, error) {
	p, err := e.repo.GetProposal(ctx, proposalID)
	if err != nil {
		return p, err
	}
	if _, err := e.requireMember(ctx, p.GroupID, userID); err != nil {
		return p, err
	}
	if p, err = e.settle(ctx, p); err != nil {
		return p, err
	}
	if p.Status.Terminal() {
		return p, fmt.Errorf("proposal %s is %s: %w", proposalID, p.Status, models.ErrAlreadyInTerminalState)
	}
	return p, nil
}

// Vote moves userID into the chosen set, out of the other one. Repeating a vote changes nothing.
func (e *Engine) Vote(ctx context.Context, proposalID, userID string, choice models.VoteChoice) (p models.EventProposal, err error) {
	ctx, done := e.start(ctx, "vote", &err)
	defer done()

	if !choice.Valid() {
		return p, fmt.Errorf("vote %q: %w", choice, models.ErrInvalidInput)
	}
	err = repositories.Retry(ctx, func() error {
		var err error
		if p, err = e.open(ctx, proposalID, userID); err != nil {
			return err
		}
		current := p.Votes.ChoiceOf(userID)
		if current == choice {
			return nil
		}

		fields := map[string]any{
			votesField(choice): store.ArrayUnion(userID),
			countField(choice): store.Increment(1),
			"updatedAt":        e.now(),
		}
		conds := []store.Condition{
			store.FieldEquals("status", string(models.ProposalActive)),
			store.ArrayLacks(votesField(choice), userID),
		}
		if current != "" {
			fields[votesField(current)] = store.ArrayRemove(userID)
			fields[countField(current)] = store.Increment(-1)
			conds = append(conds, store.ArrayHas(votesField(current), userID))
		}
		b := store.NewBatch().Update(repositories.ProposalsCollection, proposalID, fields, conds...)
		if err := repositories.Commit(ctx, e.st, b); err != nil {
			return err
		}
		p, err = e.repo.GetProposal(ctx, proposalID)
		return err
	})
	return p, err
}

// RetractVote removes userID's vote, if any.
func (e *Engine) RetractVote(ctx context.Context, proposalID, userID string) (p models.EventProposal, err error) {
	ctx, done := e.start(ctx, "retract_vote", &err)
	defer done()

	err = repositories.Retry(ctx, func() error {
		var err error
		if p, err = e.open(ctx, proposalID, userID); err != nil {
			return err
		}
		current := p.Votes.ChoiceOf(userID)
		if current == "" {
			return nil
		}
		b := store.NewBatch().Update(repositories.ProposalsCollection, proposalID, map[string]any{
			votesField(current): store.ArrayRemove(userID),
			countField(current): store.Increment(-1),
			"updatedAt":         e.now(),
		}, store.FieldEquals("status", string(models.ProposalActive)), store.ArrayHas(votesField(current), userID))
		if err := repositories.Commit(ctx, e.st, b); err != nil {
			return err
		}
		p, err = e.repo.GetProposal(ctx, proposalID)
		return err
	})
	return p, err
}
