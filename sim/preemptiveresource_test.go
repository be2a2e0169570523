package sim

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PreemptiveResource", func() {
	var (
		engine *SerialEngine
		res    *PreemptiveResource
		trace  []string
	)

	BeforeEach(func() {
		engine = NewSerialEngine()
		res = NewPreemptiveResource("repairman", 1)
		trace = nil
	})

	record := func(format string, args ...interface{}) {
		trace = append(trace, fmt.Sprintf(format, args...))
	}

	// newJob creates a process that sleeps, then acquires res at the given
	// priority and works on it for duration. If it is preempted, it records
	// the remaining work and terminates; otherwise it completes, releases,
	// and terminates.
	newJob := func(name string, sleep, duration VTime, priority int) *Process {
		var grant *Grant
		var start VTime

		return NewProcess(engine, name, "sleep", map[StateLabel]StateHandler{
			"sleep": func(ResumeOutcome) Transition {
				return WaitFor(Timeout(sleep), "acquire")
			},
			"acquire": func(ResumeOutcome) Transition {
				return WaitFor(Acquire(res, priority), "work")
			},
			"work": func(outcome ResumeOutcome) Transition {
				grant = outcome.Grant
				start = engine.CurrentTime()
				record("%s granted@%.1f", name, start)
				return WaitFor(Timeout(duration), "done")
			},
			"done": func(outcome ResumeOutcome) Transition {
				now := engine.CurrentTime()
				grant.Release()

				if outcome.Kind == Interrupted {
					cause := outcome.Cause.(Preempted)
					record("%s preempted@%.1f by=%s remaining=%.1f",
						name, now, cause.By, duration-(now-start))
					return Terminate()
				}

				record("%s completed@%.1f", name, now)
				return Terminate()
			},
		})
	}

	It("should preempt a less important holder at the same virtual time", func() {
		newJob("background", 0, 7, 2)
		newJob("repair", 3, 2, 1)

		Expect(engine.Run()).To(Succeed())
		Expect(trace).To(Equal([]string{
			"background granted@0.0",
			"background preempted@3.0 by=repair remaining=4.0",
			"repair granted@3.0",
			"repair completed@5.0",
		}))
	})

	It("should not let a less important request preempt", func() {
		newJob("repair", 0, 7, 1)
		newJob("background", 3, 1, 2)

		Expect(engine.Run()).To(Succeed())
		Expect(trace).To(Equal([]string{
			"repair granted@0.0",
			"repair completed@7.0",
			"background granted@7.0",
			"background completed@8.0",
		}))
	})

	It("should not let an equally important request preempt", func() {
		newJob("first", 0, 7, 1)
		newJob("second", 3, 1, 1)

		Expect(engine.Run()).To(Succeed())
		Expect(trace).To(Equal([]string{
			"first granted@0.0",
			"first completed@7.0",
			"second granted@7.0",
			"second completed@8.0",
		}))
	})

	It("should grant a released slot by priority, not by arrival", func() {
		newJob("holder", 0, 5, 1)
		newJob("low", 1, 1, 3)
		newJob("high", 2, 1, 1)

		Expect(engine.Run()).To(Succeed())
		Expect(trace).To(Equal([]string{
			"holder granted@0.0",
			"holder completed@5.0",
			"high granted@5.0",
			"high completed@6.0",
			"low granted@6.0",
			"low completed@7.0",
		}))
	})

	It("should evict the earliest-acquired among equally unimportant holders", func() {
		wide := NewPreemptiveResource("pool", 2)
		var interrupted []string

		holder := func(name string) {
			NewProcess(engine, name, "acquire", map[StateLabel]StateHandler{
				"acquire": func(ResumeOutcome) Transition {
					return WaitFor(Acquire(wide, 3), "work")
				},
				"work": func(ResumeOutcome) Transition {
					return WaitFor(Timeout(10), "done")
				},
				"done": func(outcome ResumeOutcome) Transition {
					if outcome.Kind == Interrupted {
						interrupted = append(interrupted, name)
					}
					return Terminate()
				},
			})
		}

		holder("first")
		holder("second")

		NewProcess(engine, "urgent", "sleep", map[StateLabel]StateHandler{
			"sleep": func(ResumeOutcome) Transition {
				return WaitFor(Timeout(1), "acquire")
			},
			"acquire": func(ResumeOutcome) Transition {
				return WaitFor(Acquire(wide, 1), "work")
			},
			"work": func(outcome ResumeOutcome) Transition {
				outcome.Grant.Release()
				return Terminate()
			},
		})

		Expect(engine.Run()).To(Succeed())
		Expect(interrupted).To(Equal([]string{"first"}))
	})

	It("should conserve work across preemptions", func() {
		const nominal = VTime(7)

		var heldTotal VTime
		partsDone := 0
		preemptions := 0

		workLeft := nominal
		var grant *Grant
		var start VTime

		NewProcess(engine, "worker", "acquire", map[StateLabel]StateHandler{
			"acquire": func(ResumeOutcome) Transition {
				if partsDone == 3 {
					return Terminate()
				}
				return WaitFor(Acquire(res, 2), "start")
			},
			"start": func(outcome ResumeOutcome) Transition {
				grant = outcome.Grant
				start = engine.CurrentTime()
				return WaitFor(Timeout(workLeft), "done")
			},
			"done": func(outcome ResumeOutcome) Transition {
				elapsed := engine.CurrentTime() - start
				heldTotal += elapsed
				workLeft -= elapsed
				grant.Release()

				if outcome.Kind == Interrupted {
					preemptions++
					return Goto("acquire")
				}

				partsDone++
				workLeft = nominal
				return Goto("acquire")
			},
		})

		// Steals the resource at t=4 and t=15, for 3 units each time.
		round := 0
		var urgentGrant *Grant
		NewProcess(engine, "urgent", "sleep", map[StateLabel]StateHandler{
			"sleep": func(ResumeOutcome) Transition {
				round++
				switch round {
				case 1:
					return WaitFor(Timeout(4), "acquire")
				case 2:
					return WaitFor(Timeout(8), "acquire")
				default:
					return Terminate()
				}
			},
			"acquire": func(ResumeOutcome) Transition {
				return WaitFor(Acquire(res, 1), "hold")
			},
			"hold": func(outcome ResumeOutcome) Transition {
				urgentGrant = outcome.Grant
				return WaitFor(Timeout(3), "release")
			},
			"release": func(ResumeOutcome) Transition {
				urgentGrant.Release()
				return Goto("sleep")
			},
		})

		Expect(engine.Run()).To(Succeed())

		Expect(partsDone).To(Equal(3))
		Expect(preemptions).To(Equal(2))
		Expect(float64(heldTotal)).To(BeNumerically("~", 21.0, 1e-9))
	})
})
