package mailing

import (
	"strings"
	"time"

	"github.com/alexKleider/Club-Utilities-sub000/internal/config"
	"github.com/alexKleider/Club-Utilities-sub000/internal/content"
	"github.com/alexKleider/Club-Utilities-sub000/internal/member"
	"github.com/alexKleider/Club-Utilities-sub000/internal/spool"
)

const letterDateLayout = "January 2, 2006"

type renderer struct {
	kind    *content.Kind
	author  config.Author
	profile config.PrinterProfile
	now     time.Time
}

// body substitutes the kind's body and post-scripts.
func (r renderer) body(fields content.Fields) (string, []string, error) {
	body, err := content.Substitute(r.kind.Body, fields)
	if err != nil {
		return "", nil, err
	}
	ps := make([]string, len(r.kind.PostScripts))
	for i, p := range r.kind.PostScripts {
		if ps[i], err = content.Substitute(p, fields); err != nil {
			return "", nil, err
		}
	}
	return body, ps, nil
}

func (r renderer) email(m *member.Member, fields content.Fields, attachments []string) (spool.Item, error) {
	body, ps, err := r.body(fields)
	if err != nil {
		return spool.Item{}, err
	}
	var b strings.Builder
	b.WriteString("Dear " + m.First + ",\n\n")
	b.WriteString(body)
	b.WriteString("\n\n")
	b.WriteString(r.author.EmailSignature)
	for i, p := range ps {
		b.WriteString("\n\n" + PostScriptLabel(i) + " " + p)
	}
	b.WriteString("\n")

	return spool.Item{
		From:        r.author.Email,
		ReplyTo:     r.author.ReplyTo,
		To:          []string{m.Email},
		Subject:     r.kind.Subject,
		Body:        b.String(),
		Attachments: append([]string(nil), attachments...),
	}, nil
}

// letter lays the text out for a windowed envelope:
//
//	top margin
//	return address, padded to ReturnRows, at ReturnCol
//	date
//	recipient block, padded to RecipientRows, at RecipientCol
//	subject line
//	salutation, body, signature, post-scripts, all at Indent
func (r renderer) letter(m *member.Member, fields content.Fields) (string, error) {
	body, ps, err := r.body(fields)
	if err != nil {
		return "", err
	}
	p := r.profile
	var lines []string
	blank := func(n int) {
		for i := 0; i < n; i++ {
			lines = append(lines, "")
		}
	}
	block := func(text []string, rows, col int) {
		for _, l := range text {
			lines = append(lines, pad(col)+l)
		}
		blank(rows - len(text))
	}
	indented := func(text string) {
		for _, l := range strings.Split(text, "\n") {
			if l == "" {
				lines = append(lines, "")
				continue
			}
			lines = append(lines, pad(p.Indent)+l)
		}
	}

	blank(p.TopMargin)
	block(r.author.ReturnAddress, p.ReturnRows, p.ReturnCol)
	blank(p.DateOffset)
	lines = append(lines, pad(p.Indent)+r.now.Format(letterDateLayout))
	blank(p.RecipientOffset)
	block(append([]string{m.Name()}, m.AddressLines()...), p.RecipientRows, p.RecipientCol)
	blank(p.SubjectOffset)
	indented("Re: " + r.kind.Subject)
	blank(1)
	indented("Dear " + m.First + ",")
	blank(1)
	indented(body)
	blank(1)
	indented(r.author.PostSignature)
	for i, s := range ps {
		blank(1)
		indented(PostScriptLabel(i) + " " + s)
	}
	return strings.Join(lines, "\n") + "\n", nil
}

// PostScriptLabel returns "P.S.", "P.P.S.", ... for the i'th post-script.
func PostScriptLabel(i int) string {
	return strings.Repeat("P.", i+1) + "S."
}

func pad(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}
