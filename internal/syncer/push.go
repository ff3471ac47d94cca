package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/wikisync/internal/apperr"
	"github.com/starford/wikisync/internal/mediawiki"
	"github.com/starford/wikisync/internal/pathcodec"
)

// pushToleranceSeconds is how far the live remote timestamp may drift from
// the ledger's recorded one before a modified or deleted title counts as a
// conflict.
const pushToleranceSeconds = 30

// PushOptions selects what to push and how conflicts are handled.
type PushOptions struct {
	// Summary is the edit summary attached to every pushed edit.
	Summary string
	// Force pushes over remote-side changes instead of reporting conflicts.
	Force bool
	// DryRun classifies and reports without any network or ledger mutation.
	DryRun bool
	// AllowDelete also deletes remote pages whose ledger row has no local
	// file anymore.
	AllowDelete bool
	// DeleteReason is the deletion reason sent with each remote delete.
	DeleteReason string
}

// Push sends local changes to the remote wiki. Per-title failures and
// conflicts land in the report; the run keeps going. Report.Success is false
// if anything conflicted or errored.
func (e *Engine) Push(ctx context.Context, remote mediawiki.Writer, opts PushOptions) (*Report, error) {
	report := &Report{}

	cands, err := e.classify(opts.AllowDelete)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		e.logger.Info("push: nothing to push")
		return report, nil
	}

	if opts.DryRun {
		for _, c := range cands {
			report.add(c.title(), wouldAction(c.status), "")
		}
		return report, nil
	}

	if remote == nil {
		for _, c := range cands {
			report.add(c.title(), ActionSkipped, "no remote configured")
		}
		return report, nil
	}
	if err := remote.Login(ctx); err != nil {
		if errors.Is(err, apperr.ErrMissingCredentials) {
			for _, c := range cands {
				report.add(c.title(), ActionSkipped, "no bot credentials configured")
			}
			return report, nil
		}
		return nil, err
	}

	titles := make([]string, len(cands))
	for i, c := range cands {
		titles[i] = c.title()
	}
	stamps, err := remote.Timestamps(ctx, titles)
	if err != nil {
		return nil, fmt.Errorf("syncer: fetch remote timestamps: %w", err)
	}

	var upserts []LedgerEntry
	var removals []string
	for _, c := range cands {
		title := c.title()
		remoteTS, onRemote := stamps[title]
		if !opts.Force {
			if conflict, detail := pushConflict(c, remoteTS, onRemote); conflict {
				report.add(title, ActionSkippedConflict, detail)
				continue
			}
		}

		if c.status == DiffDeletedLocal {
			if err := remote.Delete(ctx, title, opts.DeleteReason); err != nil {
				report.add(title, ActionError, err.Error())
				continue
			}
			removals = append(removals, c.entry.TitleKey)
			report.add(title, ActionDeleted, "")
			continue
		}

		content, err := e.layout.Read(c.file.RelPath)
		if err != nil {
			report.add(title, ActionError, err.Error())
			continue
		}
		res, err := remote.Edit(ctx, title, string(content), opts.Summary)
		if err != nil {
			report.add(title, ActionError, err.Error())
			continue
		}
		ns, _ := pathcodec.Split(title)
		var pageID int64
		if c.entry != nil {
			pageID = c.entry.PageID
		}
		upserts = append(upserts, LedgerEntry{
			Title:           title,
			NamespaceID:     ns.ID,
			RelPath:         c.file.RelPath,
			Hash:            c.file.Hash,
			RemoteTimestamp: res.NewTimestamp,
			RevisionID:      res.RevID,
			PageID:          pageID,
			IsRedirect:      c.file.IsRedirect,
		})
		if c.status == DiffNewLocal {
			report.add(title, ActionCreated, "")
		} else {
			report.add(title, ActionUpdated, "")
		}
	}

	if err := e.ledger.Apply(upserts, removals); err != nil {
		return nil, err
	}

	e.logger.Info("push finished",
		slog.Int("candidates", len(cands)),
		slog.Int("created", report.Count(ActionCreated)),
		slog.Int("updated", report.Count(ActionUpdated)),
		slog.Int("deleted", report.Count(ActionDeleted)),
		slog.Int("conflicts", report.Count(ActionSkippedConflict)),
		slog.Int("errors", report.Count(ActionError)))
	return report, nil
}

func wouldAction(status string) string {
	switch status {
	case DiffNewLocal:
		return ActionWouldCreate
	case DiffModifiedLocal:
		return ActionWouldUpdate
	default:
		return ActionWouldDelete
	}
}

// pushConflict decides whether a candidate clashes with the live remote. A
// new local title conflicts if the remote already has it. A modified or
// deleted title conflicts if the remote moved more than the tolerance away
// from the ledger's recorded timestamp. Unparseable timestamps never
// conflict.
func pushConflict(c pushCandidate, remoteTS string, onRemote bool) (bool, string) {
	if c.status == DiffNewLocal {
		if onRemote {
			return true, "remote page already exists; pull first or push with force"
		}
		return false, ""
	}
	if !onRemote {
		return false, ""
	}
	recorded, okRecorded := parseUTCSeconds(c.entry.RemoteTimestamp)
	live, okLive := parseUTCSeconds(remoteTS)
	if !okRecorded || !okLive {
		return false, ""
	}
	drift := live - recorded
	if drift < 0 {
		drift = -drift
	}
	if drift > pushToleranceSeconds {
		return true, fmt.Sprintf("remote changed at %s, last synced at %s", remoteTS, c.entry.RemoteTimestamp)
	}
	return false, ""
}
