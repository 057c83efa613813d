package availability

// CandidateStarts returns start times within [from, to) spaced by step where a
// ceremony of durationMinutes still ends by to. Starts before notBefore are skipped.
func CandidateStarts(from, to Clock, durationMinutes, stepMinutes int, notBefore Clock) []Clock {
	if durationMinutes <= 0 || stepMinutes <= 0 {
		return nil
	}
	if to <= from {
		return nil
	}
	duration := Clock(durationMinutes)
	if from+duration > to {
		return nil
	}

	var starts []Clock
	for t := from; t+duration <= to; t += Clock(stepMinutes) {
		if t < notBefore {
			continue
		}
		starts = append(starts, t)
	}
	return starts
}

// OpenSlot is a start time at which at least one registrar is available.
type OpenSlot struct {
	Start      Clock
	End        Clock
	Registrars []Match
}

// OpenSlots evaluates every candidate start against one snapshot. It only reports;
// nothing is reserved.
func OpenSlots(snap *Snapshot, req Request, starts []Clock, opts EvaluateOptions) []OpenSlot {
	opts.Diagnostics = false
	var out []OpenSlot
	for _, start := range starts {
		slotReq := req.withSlot(start)
		res := Evaluate(snap, slotReq, opts)
		if len(res.Registrars) == 0 {
			continue
		}
		out = append(out, OpenSlot{Start: slotReq.Start, End: slotReq.End, Registrars: res.Registrars})
	}
	return out
}
