package emailsvc

import (
	"fmt"
	"log"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mwalimu/somo/core"
)

// SentMessages collects every message sent through a console service, for
// inspection in tests.
var (
	SentMessages = make([]core.EmailMessage, 0)
	mu           sync.Mutex
)

type consoleService struct {
	conf       *core.Config
	from       mail.Address
	subjPrefix string
	quiet      bool
}

var _ core.EmailService = (*consoleService)(nil)

// NewConsoleService prints outgoing email to the log instead of sending it.
// For development.
func NewConsoleService(conf *core.Config) core.EmailService {
	return &consoleService{
		conf:       conf,
		from:       conf.DefaultFromEmail,
		subjPrefix: "[" + conf.AppName + "] ",
	}
}

func (svc *consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go svc.sendMessage(msg)
	}
}

func (svc *consoleService) sendMessage(msg *core.EmailMessage) {
	if err := msg.Render(svc.conf); err != nil {
		log.Fatalf("%+v", errors.Wrap(err, "rendering email"))
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return
	}

	svc.print(*msg)
	mu.Lock()
	SentMessages = append(SentMessages, *msg)
	mu.Unlock()
}

func (svc *consoleService) print(msg core.EmailMessage) {
	if svc.quiet {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\n", svc.from.String())
	fmt.Fprintf(&b, "Date: %s\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Subject: %s\n", svc.subjPrefix+msg.Subject)
	fmt.Fprintf(&b, "To: %s\n", joinAddresses(msg.To))
	if len(msg.Cc) > 0 {
		fmt.Fprintf(&b, "CC: %s\n", joinAddresses(msg.Cc))
	}
	if len(msg.Bcc) > 0 {
		fmt.Fprintf(&b, "BCC: %s\n", joinAddresses(msg.Bcc))
	}
	if msg.ReplyTo != nil {
		fmt.Fprintf(&b, "Reply-To: %s\n", msg.ReplyTo.String())
	}
	fmt.Fprintf(&b, "\n%s\n", msg.TextContent)
	for _, at := range msg.Attachments {
		fmt.Fprintf(&b, "[attachment: %s (%s), %d bytes]\n", at.Filename, at.ContentType, at.Content.Len())
	}
	log.Println(b.String())
}

func joinAddresses(addrs []mail.Address) string {
	strs := make([]string, 0, len(addrs))
	for _, a := range addrs {
		strs = append(strs, a.String())
	}
	return strings.Join(strs, ", ")
}

type consoleServiceMock struct {
	consoleService
}

// NewConsoleServiceMock runs synchronously and keeps quiet; sent messages are
// collected in SentMessages for inspection.
func NewConsoleServiceMock(conf *core.Config) core.EmailService {
	return &consoleServiceMock{
		consoleService: consoleService{
			conf:       conf,
			from:       conf.DefaultFromEmail,
			subjPrefix: "[" + conf.AppName + "] ",
			quiet:      true,
		},
	}
}

func (svc *consoleServiceMock) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		svc.sendMessage(msg)
	}
}
