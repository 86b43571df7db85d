package meetme

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDigitEventNameMapsRFC2833Codes(t *testing.T) {
	require.Equal(t, rune('0'), digitEventName(0))
	require.Equal(t, rune('9'), digitEventName(9))
	require.Equal(t, rune('*'), digitEventName(10))
	require.Equal(t, rune('#'), digitEventName(11))
	require.Equal(t, rune('A'), digitEventName(12))
	require.Equal(t, rune(0), digitEventName(99))
}

func TestDigitCollectorStopsAtTerminator(t *testing.T) {
	call := newFakeCall("c1")
	call.pressDigits("1234#")

	collector := newDigitCollector(call)
	digits, err := collector.collect(context.Background(), 0, '#')

	require.NoError(t, err)
	require.Equal(t, "1234", digits)
}

func TestDigitCollectorStopsAtMaxDigits(t *testing.T) {
	call := newFakeCall("c2")
	call.pressDigits("5678")

	collector := newDigitCollector(call)
	digits, err := collector.collect(context.Background(), 4, 0)

	require.NoError(t, err)
	require.Equal(t, "5678", digits)
}
