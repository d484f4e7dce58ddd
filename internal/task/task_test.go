package task

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunSuccess(t *testing.T) {
	got, err := Run(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 42, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestRunPropagatesError(t *testing.T) {
	wantErr := errors.New("сбой стадии")

	_, err := Run(context.Background(), time.Second, func(ctx context.Context) (string, error) {
		return "", wantErr
	})

	assert.ErrorIs(t, err, wantErr)
}

func TestRunTimeout(t *testing.T) {
	started := time.Now()

	_, err := Run(context.Background(), 20*time.Millisecond, func(ctx context.Context) (int, error) {
		// Воркер игнорирует отмену и работает дольше таймаута
		time.Sleep(500 * time.Millisecond)
		return 1, nil
	})

	assert.ErrorIs(t, err, ErrTimeout)
	// Вызов вернулся по таймауту, не дожидаясь воркера
	assert.Less(t, time.Since(started), 400*time.Millisecond)
}

func TestRunCooperativeDeadlineIsTimeout(t *testing.T) {
	// Воркер честно выходит по дедлайну контекста и возвращает обернутый
	// DeadlineExceeded: даже если ветка done выигрывает гонку с runCtx.Done(),
	// результат должен остаться ErrTimeout
	_, err := Run(context.Background(), 10*time.Millisecond, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, fmt.Errorf("стадия прервана: %w", ctx.Err())
	})

	assert.ErrorIs(t, err, ErrTimeout)
}

func TestRunForeignDeadlineStaysOrdinaryError(t *testing.T) {
	// DeadlineExceeded от чужого контекста при живом бюджете стадии
	// остается обычной ошибкой, а не таймаутом стадии
	wantErr := fmt.Errorf("вызов внешнего сервиса: %w", context.DeadlineExceeded)

	_, err := Run(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 0, wantErr
	})

	assert.ErrorIs(t, err, wantErr)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestRunContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, time.Second, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return 0, ctx.Err()
	})

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestBudgetRemaining(t *testing.T) {
	b := NewBudget(100 * time.Millisecond)

	rem := b.Remaining()
	assert.Greater(t, rem, time.Duration(0))
	assert.LessOrEqual(t, rem, 100*time.Millisecond)

	// Исчерпанный бюджет держит минимальный порог, а не ноль
	expired := NewBudget(-time.Second)
	assert.Equal(t, time.Millisecond, expired.Remaining())
}

func TestBudgetElapsed(t *testing.T) {
	b := NewBudget(time.Second)
	time.Sleep(10 * time.Millisecond)

	assert.GreaterOrEqual(t, b.Elapsed(), 10*time.Millisecond)
}
