// Package ratelimit protege as rotas públicas de escrita contra abuso
// (robôs criando agendamentos em massa, varredura de telefones).
package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Clock abstrai o relógio para os testes avançarem o tempo.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type Config struct {
	// Intervalo mínimo entre agendamentos do mesmo telefone.
	PhoneCooldown time.Duration
	// Máximo de agendamentos por telefone por dia.
	PhoneMaxPerDay int
	// Máximo de escritas públicas por IP por hora.
	IPMaxPerHour int

	// Clock nil usa o relógio real.
	Clock Clock
}

func DefaultConfig() *Config {
	return &Config{
		PhoneCooldown:  30 * time.Second,
		PhoneMaxPerDay: 10,
		IPMaxPerHour:   60,
	}
}

type Result struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string
}

type entry struct {
	count   int
	firstAt time.Time
	lastAt  time.Time
}

type Limiter struct {
	config *Config
	clock  Clock

	mu sync.Mutex
	// chaves são hashes: telefone nunca fica em claro na memória de
	// longa duração
	byPhone map[string]*entry
	byIP    map[string]*entry

	lastCleanup time.Time
}

func New(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	return &Limiter{
		config:  cfg,
		clock:   clock,
		byPhone: make(map[string]*entry),
		byIP:    make(map[string]*entry),
	}
}

// Check avalia sem registrar; Record só deve ser chamado depois da
// operação passar na validação de negócio.
func (l *Limiter) Check(phone, ip string) Result {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.maybeCleanup(now)

	if e := l.byPhone[hashKey("phone:", phone)]; e != nil {
		if since := now.Sub(e.lastAt); since < l.config.PhoneCooldown {
			return Result{
				Allowed:    false,
				RetryAfter: l.config.PhoneCooldown - since,
				Reason:     "phone_cooldown",
			}
		}
		if now.Sub(e.firstAt) < 24*time.Hour && e.count >= l.config.PhoneMaxPerDay {
			return Result{
				Allowed:    false,
				RetryAfter: 24*time.Hour - now.Sub(e.firstAt),
				Reason:     "phone_daily_limit",
			}
		}
	}

	if e := l.byIP[hashKey("ip:", ip)]; e != nil {
		if now.Sub(e.firstAt) < time.Hour && e.count >= l.config.IPMaxPerHour {
			return Result{
				Allowed:    false,
				RetryAfter: time.Hour - now.Sub(e.firstAt),
				Reason:     "ip_hourly_limit",
			}
		}
	}

	return Result{Allowed: true}
}

func (l *Limiter) Record(phone, ip string) {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	bump(l.byPhone, hashKey("phone:", phone), now, 24*time.Hour)
	bump(l.byIP, hashKey("ip:", ip), now, time.Hour)
}

func bump(m map[string]*entry, key string, now time.Time, window time.Duration) {
	e := m[key]
	if e == nil || now.Sub(e.firstAt) >= window {
		m[key] = &entry{count: 1, firstAt: now, lastAt: now}
		return
	}
	e.count++
	e.lastAt = now
}

// maybeCleanup descarta entradas velhas de forma amortizada, sem
// goroutine dedicada. Chamado com o mutex tomado.
func (l *Limiter) maybeCleanup(now time.Time) {
	if now.Sub(l.lastCleanup) < 10*time.Minute {
		return
	}
	l.lastCleanup = now

	for k, e := range l.byPhone {
		if now.Sub(e.lastAt) > 24*time.Hour {
			delete(l.byPhone, k)
		}
	}
	for k, e := range l.byIP {
		if now.Sub(e.lastAt) > time.Hour {
			delete(l.byIP, k)
		}
	}
}

func hashKey(prefix, value string) string {
	h := sha256.Sum256([]byte(value))
	return prefix + hex.EncodeToString(h[:8])
}
