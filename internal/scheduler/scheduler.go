package scheduler

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Janitor periodically closes sessions that have been idle longer than the
// configured TTL.
type Janitor struct {
	cron  *cron.Cron
	every time.Duration
	sweep func() int
}

// New creates a janitor that runs sweep on the given interval. sweep
// returns how many sessions it closed.
func New(every time.Duration, sweep func() int) *Janitor {
	return &Janitor{
		cron:  cron.New(cron.WithLocation(time.UTC)),
		every: every,
		sweep: sweep,
	}
}

func (j *Janitor) Start() error {
	if j.sweep == nil {
		log.Println("⚠️ Sweep function not set, janitor will not run")
		return nil
	}
	_, err := j.cron.AddFunc(fmt.Sprintf("@every %s", j.every), func() {
		if n := j.sweep(); n > 0 {
			log.Printf("🧹 Idle sweep closed %d session(s)", n)
		}
	})
	if err != nil {
		return err
	}
	j.cron.Start()
	log.Printf("📅 Idle-session janitor started (every %s)", j.every)
	return nil
}

func (j *Janitor) Stop() {
	if j.cron != nil {
		ctx := j.cron.Stop()
		<-ctx.Done()
	}
	log.Println("📅 Idle-session janitor stopped")
}
