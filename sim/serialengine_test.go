package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

var _ = Describe("SerialEngine", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *SerialEngine
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewSerialEngine()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	newEvent := func(t VTime, handler Handler, secondary bool) *MockEvent {
		evt := NewMockEvent(mockCtrl)
		evt.EXPECT().Time().Return(t).AnyTimes()
		evt.EXPECT().Handler().Return(handler).AnyTimes()
		evt.EXPECT().IsSecondary().Return(secondary).AnyTimes()
		return evt
	}

	It("should schedule events", func() {
		handler1 := NewMockHandler(mockCtrl)
		handler2 := NewMockHandler(mockCtrl)

		evt1 := newEvent(4.0, handler1, false)
		evt2 := newEvent(2.0, handler2, false)
		evt3 := newEvent(3.0, handler1, false)
		evt4 := newEvent(5.0, handler1, false)

		handleEvt2 := handler2.EXPECT().Handle(evt2).Do(func(e Event) {
			engine.Schedule(evt3)
			engine.Schedule(evt4)
		})
		handleEvt3 := handler1.EXPECT().
			Handle(evt3).Do(func(e Event) {}).After(handleEvt2)
		handleEvt1 := handler1.EXPECT().
			Handle(evt1).Do(func(e Event) {}).After(handleEvt3)
		handler1.EXPECT().
			Handle(evt4).Do(func(e Event) {}).After(handleEvt1)

		engine.Schedule(evt1)
		engine.Schedule(evt2)

		_ = engine.Run()
	})

	It("should handle same-time events in scheduling order", func() {
		handler1 := NewMockHandler(mockCtrl)
		handler2 := NewMockHandler(mockCtrl)

		evt1 := newEvent(5.0, handler1, false)
		evt2 := newEvent(5.0, handler2, false)

		handleEvt1 := handler1.EXPECT().Handle(evt1)
		handler2.EXPECT().Handle(evt2).After(handleEvt1)

		engine.Schedule(evt1)
		engine.Schedule(evt2)

		_ = engine.Run()
	})

	It("should consider secondary events", func() {
		handler1 := NewMockHandler(mockCtrl)
		handler2 := NewMockHandler(mockCtrl)
		handler3 := NewMockHandler(mockCtrl)

		evt1 := newEvent(2.0, handler1, true)
		evt2 := newEvent(2.0, handler2, false)
		evt3 := newEvent(2.0, handler3, false)

		handleEvt2 := handler2.EXPECT().Handle(evt2)
		handleEvt3 := handler3.EXPECT().Handle(evt3)
		handler1.EXPECT().
			Handle(evt1).Do(func(e Event) {}).
			After(handleEvt2).
			After(handleEvt3)

		engine.Schedule(evt1)
		engine.Schedule(evt2)
		engine.Schedule(evt3)

		_ = engine.Run()
	})

	It("should panic when scheduling an event in the past", func() {
		handler := NewMockHandler(mockCtrl)

		evt1 := newEvent(5.0, handler, false)
		evtInPast := newEvent(3.0, handler, false)

		handler.EXPECT().Handle(evt1).Do(func(e Event) {
			engine.Schedule(evtInPast)
		})

		engine.Schedule(evt1)

		Expect(func() { _ = engine.Run() }).To(Panic())
	})

	It("should stop at the horizon", func() {
		handler := NewMockHandler(mockCtrl)

		evt1 := newEvent(1.0, handler, false)
		evt2 := newEvent(2.0, handler, false)
		evt3 := newEvent(3.0, handler, false)

		handler.EXPECT().Handle(evt1)
		handler.EXPECT().Handle(evt2)

		engine.Schedule(evt1)
		engine.Schedule(evt2)
		engine.Schedule(evt3)

		Expect(engine.RunUntil(2.5)).To(Succeed())
		Expect(engine.CurrentTime()).To(Equal(VTime(2.5)))
		Expect(engine.PendingEventCount()).To(Equal(1))
	})

	It("should not handle events scheduled exactly at the horizon", func() {
		handler := NewMockHandler(mockCtrl)

		evt := newEvent(2.0, handler, false)
		engine.Schedule(evt)

		Expect(engine.RunUntil(2.0)).To(Succeed())
		Expect(engine.CurrentTime()).To(Equal(VTime(2.0)))
		Expect(engine.PendingEventCount()).To(Equal(1))
	})

	It("should advance to the horizon when the queue drains", func() {
		Expect(engine.RunUntil(10.0)).To(Succeed())
		Expect(engine.CurrentTime()).To(Equal(VTime(10.0)))
	})
})
