package capture

import (
	"bufio"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func reader(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func Test_ReadSummaryRecords(t *testing.T) {
	t.Run("parses report formatted fields", func(t *testing.T) {
		in := "AAA\t50%\t$1,950.00\t$1,900.00\n" +
			"BBB\t50%\t$1,950.00\t$2,000.00\n" +
			"\n"

		records, err := ReadSummaryRecords(reader(in))
		require.NoError(t, err)
		require.Len(t, records, 2)

		require.Equal(t, "AAA", records[0].Ticker)
		require.True(t, records[0].TargetPercent.Equal(decimal.NewFromInt(50)))
		require.True(t, records[0].BalancedAmount.Equal(decimal.NewFromInt(1950)))
		require.True(t, records[0].ActualAmount.Equal(decimal.NewFromInt(1900)))
		require.Equal(t, "BBB", records[1].Ticker)
		require.True(t, records[1].ActualAmount.Equal(decimal.NewFromInt(2000)))
	})

	t.Run("missing actual amount reads as zero", func(t *testing.T) {
		in := "AAA\t100%\t$500.00\n"

		records, err := ReadSummaryRecords(reader(in))
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.True(t, records[0].ActualAmount.IsZero())
	})

	t.Run("blank line terminates capture", func(t *testing.T) {
		in := "AAA\t100%\t$500.00\t$500.00\n" +
			"\n" +
			"BBB\t50%\t$1.00\t$1.00\n"

		records, err := ReadSummaryRecords(reader(in))
		require.NoError(t, err)
		require.Len(t, records, 1)
	})

	t.Run("malformed percentage rejected", func(t *testing.T) {
		in := "AAA\tfifty\t$500.00\t$500.00\n"

		_, err := ReadSummaryRecords(reader(in))
		require.Error(t, err)
		require.Contains(t, err.Error(), "target percentage")
	})

	t.Run("no records is an error", func(t *testing.T) {
		_, err := ReadSummaryRecords(reader("\n"))
		require.Error(t, err)
	})
}

func Test_ParseDollars(t *testing.T) {
	for input, expected := range map[string]string{
		"$1,234.56": "1234.56",
		"1234.56":   "1234.56",
		"$100":      "100",
		" $2,000 ":  "2000",
	} {
		value, err := ParseDollars(input)
		require.NoError(t, err, "input %q", input)
		expectedValue, err := decimal.NewFromString(expected)
		require.NoError(t, err)
		require.True(t, value.Equal(expectedValue), "input %q: got %s", input, value)
	}

	_, err := ParseDollars("abc")
	require.Error(t, err)
}
