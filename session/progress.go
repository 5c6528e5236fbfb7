package session

import (
	log "github.com/sirupsen/logrus"
)

// Progress of an initialization attempt.
type Progress struct {
	Message string `json:"message"`
	Percent int    `json:"percent"`
}

// ProgressFunc observes Progress events of an initialization attempt.
// Percents are non-decreasing, and a successful attempt ends at 100.
type ProgressFunc func(Progress)

// notify |fn| of |p|, recovering and logging a panic of |fn|.
func notify(fn ProgressFunc, p Progress) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"panic":   r,
				"message": p.Message,
				"percent": p.Percent,
			}).Warn("progress callback panicked")
		}
	}()
	fn(p)
}
