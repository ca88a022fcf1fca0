package dub

import (
	"fmt"
	"slices"
)

type matchItem struct {
	level   int
	matcher matcher
}

type matcher interface {
	match(i int) bool
}

type rangeMatch struct {
	start, end int
}

func (r rangeMatch) match(i int) bool {
	return (i >= r.start || r.start == -1) && (i <= r.end || r.end == -1)
}

var matchAll = rangeMatch{-1, -1}

type listMatch []int

func (l listMatch) match(i int) bool {
	return slices.Contains(l, i)
}

// EvalMatchExpr expands expr over a bar of numerator 1/denominator notes,
// divided into steps of 1/stepSize notes, or 1/stepSize triplets. The top
// level of expr counts beats (quarter notes) from the start of the bar, each
// deeper level divides a beat in two, or in three for the first triplet
// level. Matched steps are set to 1.
func EvalMatchExpr(expr MatchExpr, numerator, denominator, stepSize int, triplets bool) ([]int, error) {
	stepsPerWhole := stepSize
	if triplets {
		stepsPerWhole = stepSize * 3 / 2
	}
	if numerator < 1 || denominator < 1 || stepSize%4 != 0 || stepsPerWhole%denominator != 0 {
		return nil, fmt.Errorf("invalid bar %d/%d with step size %d", numerator, denominator, stepSize)
	}
	if len(expr.matchers) == 0 {
		return nil, fmt.Errorf("empty match expression")
	}
	seq := make([]int, numerator*stepsPerWhole/denominator)
	stepsPerBeat := stepsPerWhole / 4

	for i := len(expr.matchers) - 1; i >= 0; i-- {
		item := expr.matchers[i]
		notesPerBeat := 1 << item.level
		if triplets && item.level > 0 {
			notesPerBeat = 3 << (item.level - 1)
		}
		if notesPerBeat > stepsPerBeat || stepsPerBeat%notesPerBeat != 0 {
			return nil, fmt.Errorf("can't match on %d notes per beat with step size %d", notesPerBeat, stepSize)
		}
		skip := stepsPerBeat / notesPerBeat

		for note, steps := 0, 0; note < len(seq); note += skip {
			// calculate a note number relative to other notes on the same division, e.g.
			// the 16th notes within a beat are numbered 0 to 3
			noteNum := steps % notesPerBeat
			if notesPerBeat == 1 {
				noteNum = steps
			}
			steps++

			// add 1 because match expects note numbers to start at 1
			if item.matcher.match(noteNum + 1) {
				if i == len(expr.matchers)-1 {
					seq[note] = 1
				}
			} else {
				// zero steps that are unmatched by the current level
				for i := note; i < note+skip && i < len(seq); i++ {
					seq[i] = 0
				}
			}
		}
	}
	return seq, nil
}
