package journals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atlas-erp/atlas-erp/internal/draft"
)

// Service posts, voids, and reverses journal entries.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) List(ctx context.Context) ([]JournalEntry, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (JournalEntry, error) {
	return s.repo.Get(ctx, id)
}

// Post validates and writes one entry with its lines and allocations
// in a single transaction.
func (s *Service) Post(ctx context.Context, input PostingInput) (JournalEntry, error) {
	if err := input.Validate(); err != nil {
		return JournalEntry{}, err
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inserted, err := tx.InsertEntry(ctx, input)
		if err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, inserted.ID, input.Lines); err != nil {
			return err
		}
		if len(input.Allocations) > 0 {
			if err := tx.InsertAllocations(ctx, inserted.ID, input.Allocations); err != nil {
				return err
			}
		}
		entry, err = tx.GetEntryWithLines(ctx, inserted.ID)
		return err
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.logger.Info("journal entry posted",
		slog.Int64("entry_id", entry.ID),
		slog.String("source", entry.Source),
		slog.Int("lines", len(entry.Lines)),
	)
	return entry, nil
}

// PostJournal satisfies the journal half of draft.Poster.
func (s *Service) PostJournal(ctx context.Context, payload draft.JournalPayload) (int64, error) {
	entry, err := s.Post(ctx, fromJournalPayload(SourceJournal, payload, nil))
	if err != nil {
		return 0, rejection(err)
	}
	return entry.ID, nil
}

// PostPayment satisfies the payment half of draft.Poster.
func (s *Service) PostPayment(ctx context.Context, payload draft.PaymentPayload) (int64, error) {
	entry, err := s.Post(ctx, fromJournalPayload(SourcePayment, payload.JournalPayload, payload.Allocations))
	if err != nil {
		return 0, rejection(err)
	}
	return entry.ID, nil
}

// rejection marks refusals the submitter can act on so the drafting
// layer surfaces them verbatim; anything else stays a server fault.
func rejection(err error) error {
	switch {
	case errors.Is(err, ErrTooFewLines),
		errors.Is(err, ErrUnbalancedEntry),
		errors.Is(err, ErrDuplicateAllocation):
		return draft.Rejected(err)
	}
	return err
}

func fromJournalPayload(source string, payload draft.JournalPayload, allocations []draft.WireAllocation) PostingInput {
	input := PostingInput{
		Source:     source,
		Date:       payload.Date,
		CurrencyID: payload.CurrencyID,
		Memo:       payload.Memo,
	}
	for _, line := range payload.Lines {
		pl := PostingLineInput{
			Type:   string(line.Type),
			Amount: line.Amount,
		}
		for _, seg := range line.Segments {
			pl.Segments = append(pl.Segments, Segment{
				TypeID: seg.SegmentTypeID,
				Code:   seg.SegmentCode,
			})
		}
		input.Lines = append(input.Lines, pl)
	}
	for _, alloc := range allocations {
		input.Allocations = append(input.Allocations, AllocationInput{
			InvoiceID: alloc.InvoiceID,
			Amount:    alloc.AmountAllocated,
		})
	}
	return input
}

// Void marks a posted entry void. Only posted entries can be voided.
func (s *Service) Void(ctx context.Context, input VoidInput) (JournalEntry, error) {
	if input.EntryID == 0 {
		return JournalEntry{}, ErrEntryNotFound
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryWithLines(ctx, input.EntryID)
		if err != nil {
			return err
		}
		if current.Status != JournalStatusPosted {
			return ErrInvalidStatus
		}
		if err := tx.UpdateStatus(ctx, current.ID, JournalStatusVoid); err != nil {
			return err
		}
		entry = current
		entry.Status = JournalStatusVoid
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.logger.Info("journal entry voided",
		slog.Int64("entry_id", entry.ID),
		slog.String("reason", input.Reason),
	)
	return entry, nil
}

// Reverse posts a new entry with the sides of the original flipped.
func (s *Service) Reverse(ctx context.Context, input ReverseInput) (JournalEntry, error) {
	if input.EntryID == 0 {
		return JournalEntry{}, ErrEntryNotFound
	}
	var reversal JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetEntryWithLines(ctx, input.EntryID)
		if err != nil {
			return err
		}
		if original.Status != JournalStatusPosted {
			return ErrInvalidStatus
		}
		posting := PostingInput{
			Source:     original.Source + ":" + SourceReversal,
			Date:       s.now().Format("2006-01-02"),
			CurrencyID: original.CurrencyID,
			Memo:       reversalMemo(input.Memo, original.Number),
			Lines:      reverseLines(original.Lines),
		}
		inserted, err := tx.InsertEntry(ctx, posting)
		if err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, inserted.ID, posting.Lines); err != nil {
			return err
		}
		reversal, err = tx.GetEntryWithLines(ctx, inserted.ID)
		return err
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.logger.Info("journal entry reversed",
		slog.Int64("original_id", input.EntryID),
		slog.Int64("reversal_id", reversal.ID),
	)
	return reversal, nil
}

func reverseLines(lines []JournalLine) []PostingLineInput {
	out := make([]PostingLineInput, 0, len(lines))
	for _, line := range lines {
		flipped := string(draft.LineKind(line.Type).Opposite())
		out = append(out, PostingLineInput{
			Type:     flipped,
			Amount:   line.Amount,
			Segments: line.Segments,
		})
	}
	return out
}

func reversalMemo(memo string, number int64) string {
	if memo != "" {
		return memo
	}
	return fmt.Sprintf("Reversal of JE %d", number)
}
