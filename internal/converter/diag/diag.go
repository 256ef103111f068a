// Package diag собирает сообщения о ходе конвертации и предупреждения.
// Сообщения уходят в переданный Sink и сохраняются, чтобы их можно было
// вернуть вместе с результатом.
package diag

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"strings"
)

// WarnPrefix помечает предупреждения.
const WarnPrefix = "WARN: "

// Sink получает каждое сообщение конвертации.
type Sink func(message string)

// Discard выбрасывает сообщения.
func Discard(string) {}

// StdSink пишет сообщения через стандартный логгер с тегом, как остальные
// логи сервиса: "[TAG] message".
func StdSink(tag string) Sink {
	return func(message string) {
		log.Printf("[%s] %s", tag, message)
	}
}

// SlogSink передаёт сообщения в l: с WarnPrefix на уровне warn, остальные
// на уровне info.
func SlogSink(l *slog.Logger) Sink {
	if l == nil {
		return Discard
	}
	return func(message string) {
		if msg, ok := strings.CutPrefix(message, WarnPrefix); ok {
			l.Log(context.Background(), slog.LevelWarn, msg)
			return
		}
		l.Log(context.Background(), slog.LevelInfo, message)
	}
}

// Log хранит сообщения одной конвертации. nil *Log допустим и всё
// выбрасывает.
type Log struct {
	sink     Sink
	entries  []string
	warnings int
}

func New(sink Sink) *Log {
	if sink == nil {
		sink = Discard
	}
	return &Log{sink: sink}
}

func (l *Log) Info(format string, args ...any) {
	if l == nil {
		return
	}
	l.emit(fmt.Sprintf(format, args...))
}

func (l *Log) Warn(format string, args ...any) {
	if l == nil {
		return
	}
	l.warnings++
	l.emit(WarnPrefix + fmt.Sprintf(format, args...))
}

func (l *Log) emit(message string) {
	l.entries = append(l.entries, message)
	l.sink(message)
}

// Entries возвращает копию всех записанных сообщений.
func (l *Log) Entries() []string {
	if l == nil {
		return nil
	}
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// Warnings возвращает число предупреждений.
func (l *Log) Warnings() int {
	if l == nil {
		return 0
	}
	return l.warnings
}
