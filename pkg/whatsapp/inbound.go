package whatsapp

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/rotisserie/eris"
)

// InboundMessage is one webhook delivery from Twilio.
type InboundMessage struct {
	MessageSID  string
	From        string // E.164, channel prefix stripped
	ProfileName string
	Body        string
	MediaURLs   []string
}

// HasMedia reports whether the message carries attachments.
func (m *InboundMessage) HasMedia() bool { return len(m.MediaURLs) > 0 }

// ParseInbound decodes a Twilio WhatsApp webhook form post.
func ParseInbound(r *http.Request) (*InboundMessage, error) {
	if err := r.ParseForm(); err != nil {
		return nil, eris.Wrap(err, "whatsapp: parse webhook form")
	}

	from := StripNumber(r.PostFormValue("From"))
	if from == "" {
		return nil, eris.New("whatsapp: webhook missing From")
	}

	msg := &InboundMessage{
		MessageSID:  r.PostFormValue("MessageSid"),
		From:        from,
		ProfileName: r.PostFormValue("ProfileName"),
		Body:        r.PostFormValue("Body"),
	}

	numMedia, _ := strconv.Atoi(r.PostFormValue("NumMedia"))
	for i := 0; i < numMedia; i++ {
		if u := r.PostFormValue(fmt.Sprintf("MediaUrl%d", i)); u != "" {
			msg.MediaURLs = append(msg.MediaURLs, u)
		}
	}

	return msg, nil
}
