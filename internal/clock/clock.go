// Package clock - доверенный источник времени в секундах Unix.
package clock

import (
	"sync/atomic"
	"time"
)

// Clock возвращает текущее время. Сервисы читают его ровно один раз за вызов.
type Clock interface {
	Now() uint64
}

// System - системные часы.
type System struct{}

func (System) Now() uint64 {
	return uint64(time.Now().Unix())
}

// Manual - управляемые часы для тестов.
type Manual struct {
	now atomic.Uint64
}

// NewManual создает часы, показывающие now.
func NewManual(now uint64) *Manual {
	m := &Manual{}
	m.now.Store(now)
	return m
}

func (m *Manual) Now() uint64 {
	return m.now.Load()
}

// Set переводит часы.
func (m *Manual) Set(now uint64) {
	m.now.Store(now)
}

// Advance сдвигает часы вперед на d секунд.
func (m *Manual) Advance(d uint64) {
	m.now.Add(d)
}
