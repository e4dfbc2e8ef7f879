package comm

import "fmt"

// Receive is a typed wrapper around Process.Receive. It fails if the
// arriving message is not of shape T.
func Receive[T Msg](p *Process, src Rank, tag Tag) (T, Status, error) {
	return typed[T](p.Receive(src, tag))
}

// ReceiveAny is a typed wrapper around Process.ReceiveAny.
func ReceiveAny[T Msg](p *Process, tag Tag) (T, Status, error) {
	return typed[T](p.ReceiveAny(tag))
}

// ReceiveVector is a typed wrapper around Process.ReceiveVector.
func ReceiveVector[T Msg](p *Process, src Rank, tag Tag) ([]T, Status, error) {
	return typedVector[T](p.ReceiveVector(src, tag))
}

// ReceiveVectorAny is a typed wrapper around Process.ReceiveVectorAny.
func ReceiveVectorAny[T Msg](p *Process, tag Tag) ([]T, Status, error) {
	return typedVector[T](p.ReceiveVectorAny(tag))
}

func typed[T Msg](msg Msg, st Status, err error) (T, Status, error) {
	var zero T
	if err != nil {
		return zero, Status{}, err
	}

	t, ok := msg.(T)
	if !ok {
		return zero, Status{}, fmt.Errorf(
			"tag %d: unexpected message shape %T", st.Tag, msg)
	}

	return t, st, nil
}

func typedVector[T Msg](msgs []Msg, st Status, err error) ([]T, Status, error) {
	if err != nil {
		return nil, Status{}, err
	}

	ts := make([]T, len(msgs))
	for i, m := range msgs {
		t, ok := m.(T)
		if !ok {
			return nil, Status{}, fmt.Errorf(
				"tag %d: unexpected message shape %T in batch", st.Tag, m)
		}

		ts[i] = t
	}

	return ts, st, nil
}
