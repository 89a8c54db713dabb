package fetcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	in := "CLAVE,DESCRIPCION,PRECIO\n001, PARACETAMOL 500 MG ,25.50\n002,IBUPROFENO 400 MG,18.00\n"

	rows, err := ReadCSV(strings.NewReader(in), CSVOptions{TrimSpace: true})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"CLAVE", "DESCRIPCION", "PRECIO"}, rows[0])
	assert.Equal(t, "PARACETAMOL 500 MG", rows[1][1])
}

func TestReadCSVDelimiter(t *testing.T) {
	in := "001|PARACETAMOL|25.50\n002|IBUPROFENO|18.00\n"

	rows, err := ReadCSV(strings.NewReader(in), CSVOptions{Delimiter: '|'})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "IBUPROFENO", rows[1][1])
}

func TestReadCSVUnevenRows(t *testing.T) {
	in := "001,PARACETAMOL,25.50\n002,IBUPROFENO\n"

	rows, err := ReadCSV(strings.NewReader(in), CSVOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Len(t, rows[1], 2)
}

func TestParseFTPURL(t *testing.T) {
	host, path, err := parseFTPURL("ftp://feeds.example.com/precios/lista.csv")
	require.NoError(t, err)
	assert.Equal(t, "feeds.example.com:21", host)
	assert.Equal(t, "/precios/lista.csv", path)

	_, _, err = parseFTPURL("https://example.com/lista.csv")
	assert.Error(t, err)

	_, _, err = parseFTPURL("ftp://feeds.example.com")
	assert.Error(t, err)
}
