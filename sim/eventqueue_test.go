package sim

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

var _ = Describe("EventQueueImpl", func() {
	var (
		mockCtrl *gomock.Controller
		queue    *EventQueueImpl
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		queue = NewEventQueue()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should pop in order", func() {
		numEvents := 100
		for i := 0; i < numEvents; i++ {
			event := NewMockEvent(mockCtrl)
			event.EXPECT().
				Time().
				Return(VTime(rand.Float64() / 1e8)).
				AnyTimes()
			queue.Push(event)
		}

		now := VTime(-1)
		for i := 0; i < numEvents; i++ {
			event := queue.Pop()
			Expect(event.Time() >= now).To(BeTrue())
			now = event.Time()
		}
	})

	It("should pop same-time events in push order", func() {
		evtA := NewMockEvent(mockCtrl)
		evtB := NewMockEvent(mockCtrl)
		evtC := NewMockEvent(mockCtrl)
		evtA.EXPECT().Time().Return(VTime(5.0)).AnyTimes()
		evtB.EXPECT().Time().Return(VTime(5.0)).AnyTimes()
		evtC.EXPECT().Time().Return(VTime(2.0)).AnyTimes()

		queue.Push(evtA)
		queue.Push(evtB)
		queue.Push(evtC)

		Expect(queue.Pop()).To(BeIdenticalTo(evtC))
		Expect(queue.Pop()).To(BeIdenticalTo(evtA))
		Expect(queue.Pop()).To(BeIdenticalTo(evtB))
	})
})

var _ = Describe("Insertion Queue", func() {
	var (
		mockCtrl *gomock.Controller
		queue    *InsertionQueue
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		queue = NewInsertionQueue()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should pop in order", func() {
		numEvents := 100
		for i := 0; i < numEvents; i++ {
			event := NewMockEvent(mockCtrl)
			event.EXPECT().
				Time().
				Return(VTime(rand.Float64() / 1e8)).
				AnyTimes()
			queue.Push(event)
		}

		now := VTime(-1)
		for i := 0; i < numEvents; i++ {
			event := queue.Pop()
			Expect(event.Time() >= now).To(BeTrue())
			now = event.Time()
		}
	})

	It("should pop same-time events in push order", func() {
		evtA := NewMockEvent(mockCtrl)
		evtB := NewMockEvent(mockCtrl)
		evtA.EXPECT().Time().Return(VTime(5.0)).AnyTimes()
		evtB.EXPECT().Time().Return(VTime(5.0)).AnyTimes()

		queue.Push(evtA)
		queue.Push(evtB)

		Expect(queue.Pop()).To(BeIdenticalTo(evtA))
		Expect(queue.Pop()).To(BeIdenticalTo(evtB))
	})
})
