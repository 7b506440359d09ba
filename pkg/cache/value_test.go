package cache_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/jobpilot/pkg/cache"
)

var _ = Describe("Value", func() {
	var (
		now time.Time
		v   *cache.Value[string]
	)

	clock := func() time.Time { return now }

	BeforeEach(func() {
		now = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
		v = cache.New(time.Minute, cache.WithClock[string](clock))
	})

	It("starts empty and stale", func() {
		got, fresh := v.Get()
		Expect(got).To(BeEmpty())
		Expect(fresh).To(BeFalse())
		Expect(v.IsFresh()).To(BeFalse())
	})

	It("is fresh right after Set", func() {
		v.Set("tok")
		got, fresh := v.Get()
		Expect(got).To(Equal("tok"))
		Expect(fresh).To(BeTrue())
	})

	It("goes stale once the max age has passed", func() {
		v.Set("tok")
		now = now.Add(time.Minute)

		got, fresh := v.Get()
		Expect(got).To(Equal("tok"))
		Expect(fresh).To(BeFalse())
	})

	It("restarts the age on Set", func() {
		v.Set("a")
		now = now.Add(50 * time.Second)
		v.Set("b")
		now = now.Add(50 * time.Second)

		Expect(v.IsFresh()).To(BeTrue())
	})

	It("drops the value on Invalidate", func() {
		v.Set("tok")
		v.Invalidate()

		got, fresh := v.Get()
		Expect(got).To(BeEmpty())
		Expect(fresh).To(BeFalse())
	})

	It("never expires without a max age", func() {
		forever := cache.New(0, cache.WithClock[int](clock))
		forever.Set(7)
		now = now.Add(24 * 365 * time.Hour)

		Expect(forever.IsFresh()).To(BeTrue())
	})
})
