package common

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBigInt(t *testing.T) {
	assert := assert.New(t)

	n, err := ParseBigInt("2000000")
	assert.Nil(err)
	assert.Equal(big.NewInt(2000000), n)

	_, err = ParseBigInt("foo")
	assert.Equal(ErrParseBigInt, err)
}

func TestParseTokenAmount(t *testing.T) {
	assert := assert.New(t)

	oneToken, _ := new(big.Int).SetString("1000000000000000000", 10)
	amount, err := ParseTokenAmount("1", TokenDecimals)
	assert.Nil(err)
	assert.Equal(0, oneToken.Cmp(amount))

	amount, err = ParseTokenAmount("0.25", TokenDecimals)
	assert.Nil(err)
	assert.Equal("250000000000000000", amount.String())

	amount, err = ParseTokenAmount(".5", 1)
	assert.Nil(err)
	assert.Equal(big.NewInt(5), amount)

	amount, err = ParseTokenAmount("12", 0)
	assert.Nil(err)
	assert.Equal(big.NewInt(12), amount)

	for _, bad := range []string{"", "-1", "+1", "1.2.3", "abc", "1e18", "0.123"} {
		_, err := ParseTokenAmount(bad, 2)
		assert.ErrorIs(err, ErrParseTokenAmount, bad)
	}
}

func TestFormatTokenAmount(t *testing.T) {
	assert := assert.New(t)

	oneToken, _ := new(big.Int).SetString("1000000000000000000", 10)
	assert.Equal("1.0", FormatTokenAmount(oneToken, TokenDecimals))
	assert.Equal("0.0", FormatTokenAmount(nil, TokenDecimals))
	assert.Equal("0.5", FormatTokenAmount(big.NewInt(5), 1))
	assert.Equal("0.000000000000000001", FormatTokenAmount(big.NewInt(1), TokenDecimals))
	assert.Equal("-1.5", FormatTokenAmount(big.NewInt(-15), 1))
	assert.Equal("42.0", FormatTokenAmount(big.NewInt(42), 0))
	assert.Equal("115792089237316195423570985008687907853269984665640564039457.584007913129639935",
		FormatTokenAmount(MaxUint256OrFatal(t), TokenDecimals))

	// round trip through the parser
	amount, err := ParseTokenAmount("12.0625", TokenDecimals)
	require.Nil(t, err)
	assert.Equal("12.0625", FormatTokenAmount(amount, TokenDecimals))
}

func TestHumanizeTokenAmount(t *testing.T) {
	amount, err := ParseTokenAmount("1234567.5", TokenDecimals)
	require.Nil(t, err)
	assert.Equal(t, "1,234,567.5", HumanizeTokenAmount(amount, TokenDecimals))
	assert.Equal(t, "-1,000.0", HumanizeTokenAmount(big.NewInt(-1000), 0))
}

func TestShortenAccount(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("0x2Fc...f44B", ShortenAccount("0x2Fc8d348712462442Ae49A5aD341Eb8bCBA2f44B"))
	assert.Equal("", ShortenAccount(""))
	assert.Equal("0x1234", ShortenAccount("0x1234"))
}

func TestReadFromFile(t *testing.T) {
	assert := assert.New(t)

	// missing file returns the input
	output, err := ReadFromFile("/tmp/../../../nothing")
	assert.NotNil(err)
	assert.Equal("/tmp/../../../nothing", output)

	// directory returns the input
	dir := t.TempDir()
	output, err = ReadFromFile(dir)
	assert.NotNil(err)
	assert.Equal(dir, output)

	// empty file
	empty := filepath.Join(dir, "empty")
	require.Nil(t, os.WriteFile(empty, nil, 0600))
	output, err = ReadFromFile(empty)
	assert.NotNil(err)
	assert.Equal(empty, output)

	// contents are trimmed
	pass := filepath.Join(dir, "pass")
	require.Nil(t, os.WriteFile(pass, []byte("  hunter2 \n"), 0600))
	output, err = ReadFromFile(pass)
	assert.Nil(err)
	assert.Equal("hunter2", output)
}
