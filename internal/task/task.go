package task

import (
	"context"
	"errors"
	"time"
)

// Пакет task выражает шаблон "одноразовый воркер + ожидание с таймаутом"
// как переиспользуемую абстракцию для последовательных ограниченных стадий,
// разделяющих один сквозной дедлайн.

// ErrTimeout возвращается, когда стадия не уложилась в остаток бюджета
var ErrTimeout = errors.New("превышен бюджет времени стадии")

// minRemaining — нижний порог остатка, защищающий от гонки нулевого таймаута
const minRemaining = time.Millisecond

// Budget отслеживает общий дедлайн одного запроса.
// Каждая стадия расходует остаток; остаток никогда не бывает меньше порога.
type Budget struct {
	start    time.Time
	deadline time.Time
}

// NewBudget создает бюджет с отсчетом от текущего момента
func NewBudget(total time.Duration) Budget {
	now := time.Now()
	return Budget{start: now, deadline: now.Add(total)}
}

// Remaining возвращает остаток бюджета, не меньше минимального порога
func (b Budget) Remaining() time.Duration {
	rem := time.Until(b.deadline)
	if rem < minRemaining {
		return minRemaining
	}
	return rem
}

// Elapsed возвращает время с начала бюджета
func (b Budget) Elapsed() time.Duration {
	return time.Since(b.start)
}

// Run выполняет fn на выделенной горутине и ждет результат не дольше
// timeout. По истечении таймаута возвращается ErrTimeout, а воркер
// бросается: внешняя способность может не поддерживать прерывание,
// поэтому горутина завершится сама, когда fn вернется. Контекст с
// дедлайном передается в fn для кооперативной отмены там, где она возможна.
func Run[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)

	type outcome struct {
		value T
		err   error
	}

	// Буфер на один элемент, чтобы брошенный воркер не завис на отправке
	done := make(chan outcome, 1)
	go func() {
		defer cancel()
		value, err := fn(runCtx)
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		// Воркер мог кооперативно выйти по дедлайну runCtx в тот же
		// момент, когда select выбрал ветку done: такой исход все равно
		// означает истекший бюджет стадии, а не обычную ошибку.
		if out.err != nil && errors.Is(out.err, context.DeadlineExceeded) && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			var zero T
			return zero, ErrTimeout
		}
		return out.value, out.err
	case <-runCtx.Done():
		var zero T
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return zero, ErrTimeout
		}
		return zero, runCtx.Err()
	}
}
