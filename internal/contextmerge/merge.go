package contextmerge

// Merge computes the next summary document from the current one (nil when
// the ticket has none yet) and a candidate. It is pure: IDs and timestamps
// are left for the caller to fill.
func Merge(existing *Summary, c Candidate) Summary {
	if existing == nil {
		return Summary{
			Version:         1,
			Title:           c.Title,
			Summary:         c.Summary,
			ConfirmedFacts:  dedupe(c.ConfirmedFacts),
			InferredSignals: dedupe(c.InferredSignals),
			Unknowns:        dedupe(c.Unknowns),
			ActionsTaken:    dedupe(c.ActionsTaken),
			Sentiment:       copySentiment(c.Sentiment),
		}
	}

	return Summary{
		ID:              existing.ID,
		TicketID:        existing.TicketID,
		Version:         existing.Version + 1,
		Title:           c.Title,
		Summary:         c.Summary,
		ConfirmedFacts:  union(existing.ConfirmedFacts, c.ConfirmedFacts),
		InferredSignals: union(existing.InferredSignals, c.InferredSignals),
		Unknowns:        dedupe(c.Unknowns),
		ActionsTaken:    union(existing.ActionsTaken, c.ActionsTaken),
		Sentiment:       copySentiment(c.Sentiment),
		CreatedAt:       existing.CreatedAt,
	}
}

// ApplyPatch computes the next document for a partial update of existing.
func ApplyPatch(existing Summary, p Patch) Summary {
	next := existing
	next.Version = existing.Version + 1
	if p.Title != nil {
		next.Title = *p.Title
	}
	if p.Summary != nil {
		next.Summary = *p.Summary
	}
	if p.Sentiment != nil {
		next.Sentiment = copySentiment(p.Sentiment)
	}
	if p.Unknowns != nil {
		next.Unknowns = dedupe(*p.Unknowns)
	}
	next.ConfirmedFacts = union(existing.ConfirmedFacts, p.AddConfirmedFacts)
	next.InferredSignals = union(existing.InferredSignals, p.AddInferredSignals)
	next.ActionsTaken = union(existing.ActionsTaken, p.AddActionsTaken)
	return next
}

func copySentiment(s *Sentiment) *Sentiment {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
