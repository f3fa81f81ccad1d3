package observer_test

import (
	"testing"

	"github.com/KirkDiggler/ability-system/internal/observer"
	"github.com/stretchr/testify/assert"
)

func TestList_NotifyInSubscriptionOrder(t *testing.T) {
	var l observer.List[int]
	var order []string

	l.Subscribe(func(v int) { order = append(order, "first") })
	l.Subscribe(func(v int) { order = append(order, "second") })
	l.Subscribe(func(v int) { order = append(order, "third") })

	l.Notify(1)

	assert.Equal(t, []string{"first", "second", "third"}, order)
	assert.Equal(t, 3, l.Len())
}

func TestList_Unsubscribe(t *testing.T) {
	var l observer.List[string]
	var got []string

	a := l.Subscribe(func(v string) { got = append(got, "a:"+v) })
	l.Subscribe(func(v string) { got = append(got, "b:"+v) })
	l.Subscribe(func(v string) { got = append(got, "c:"+v) })

	l.Unsubscribe(a)
	l.Unsubscribe(observer.Subscription(999))
	l.Notify("x")

	assert.Equal(t, []string{"b:x", "c:x"}, got)
}

func TestList_UnsubscribeDuringNotify(t *testing.T) {
	var l observer.List[int]
	calls := 0

	var sub observer.Subscription
	sub = l.Subscribe(func(int) {
		calls++
		l.Unsubscribe(sub)
	})

	l.Notify(1)
	l.Notify(2)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, l.Len())
}

func TestList_NilCallbackIgnored(t *testing.T) {
	var l observer.List[int]

	id := l.Subscribe(nil)

	assert.Equal(t, observer.Subscription(0), id)
	assert.Equal(t, 0, l.Len())
	assert.NotPanics(t, func() { l.Notify(1) })
}
