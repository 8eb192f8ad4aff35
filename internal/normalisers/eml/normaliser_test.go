package eml

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

func normalise(t *testing.T, msg string) string {
	t.Helper()
	res, err := New().Normalise(context.Background(), &domain.RawDocument{
		Filename: "esclarecimento.eml",
		Content:  []byte(strings.ReplaceAll(msg, "\n", "\r\n")),
	})
	require.NoError(t, err)
	require.Len(t, res.Pages, 1)
	assert.Equal(t, "eml", res.Method)
	return res.Pages[0].RawText
}

func TestNormalise_Plain(t *testing.T) {
	text := normalise(t, `From: Pregoeiro <pregao@saojose.gov.br>
Date: Mon, 3 Mar 2025 10:00:00 -0300
Subject: =?UTF-8?Q?Resposta_ao_pedido_de_esclarecimento?=
Content-Type: text/plain; charset=utf-8
Content-Transfer-Encoding: quoted-printable

O prazo de entrega =C3=A9 de 30 dias.
`)
	assert.Equal(t, "From: Pregoeiro <pregao@saojose.gov.br>\n"+
		"Date: Mon, 3 Mar 2025 10:00:00 -0300\n"+
		"Subject: Resposta ao pedido de esclarecimento\n\n"+
		"O prazo de entrega é de 30 dias.", text)
}

func TestNormalise_MultipartPrefersPlain(t *testing.T) {
	text := normalise(t, `From: pregao@saojose.gov.br
Subject: Impugnação
Content-Type: multipart/mixed; boundary="outer"

--outer
Content-Type: multipart/alternative; boundary="inner"

--inner
Content-Type: text/html

<p>Resposta <b>HTML</b></p>
--inner
Content-Type: text/plain

Resposta em texto
--inner--
--outer
Content-Type: application/pdf
Content-Disposition: attachment; filename="parecer.pdf"

%PDF-1.4
--outer--
`)
	assert.Contains(t, text, "Resposta em texto")
	assert.NotContains(t, text, "HTML")
	assert.NotContains(t, text, "%PDF")
}

func TestNormalise_HTMLOnly(t *testing.T) {
	text := normalise(t, `Subject: Aviso
Content-Type: text/html

<div>Sessão adiada</div><div>para 12/03/2025</div>
`)
	assert.Equal(t, "Subject: Aviso\n\nSessão adiada\npara 12/03/2025", text)
}

func TestNormalise_Invalid(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
