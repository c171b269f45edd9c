package relay

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"github.com/GriffinCanCode/PenBox/backend/internal/shared/utils"
	"github.com/bytedance/sonic"
)

// scriptMessageLimit caps relayed text in UTF-16 units so the encoded
// message stays under utils.MaxMessageSize.
const scriptMessageLimit = utils.MaxMessageSize / 4

//go:embed assets/relay.js
var relayScript string

var relayTemplate = template.Must(template.New("relay").Parse(relayScript))

// Instrument renders the script injected ahead of user code in a preview
// document. It wraps the four console channels and reports uncaught errors,
// posting each as a Message tagged with src's generation and token.
func Instrument(src Source) (string, error) {
	generation, err := sonic.MarshalString(src.Generation.String())
	if err != nil {
		return "", fmt.Errorf("encode generation: %w", err)
	}
	token, err := sonic.MarshalString(src.Token)
	if err != nil {
		return "", fmt.Errorf("encode token: %w", err)
	}

	var buf bytes.Buffer
	data := struct {
		Generation, Token string
		Limit             int
	}{generation, token, scriptMessageLimit}
	if err := relayTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render relay script: %w", err)
	}
	return buf.String(), nil
}
