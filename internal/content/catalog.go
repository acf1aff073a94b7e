package content

import "github.com/alexKleider/Club-Utilities-sub000/internal/member"

// Author keys used by the built-in kinds.
const (
	AuthorSecretary = "secretary"
)

const (
	duesPS       = "Dues and fees are payable to the Club and may be mailed to the address above or paid at a meeting."
	attachmentPS = "A copy of the current membership list is attached."
)

// Default returns the club's standard mailings.
func Default() *Catalog {
	return NewCatalog(
		&Kind{
			Name:    "first_notice",
			Subject: "Club dues and fees",
			Author:  AuthorSecretary,
			Body: `The new Club year begins July 1st and with it come dues and,
where they apply, dock, kayak and mooring fees.

Our records show the following as current:

{extra}

Thank you for your continued support of the Club.`,
			PostScripts: []string{duesPS},
			Steps:       []Step{AssignStatement2Extra},
			Predicate:   Predicate{Name: IsFeePayingMember},
			Policy:      PolicyOneOnly,
		},
		&Kind{
			Name:    "second_notice",
			Subject: "Club dues and fees: second notice",
			Author:  AuthorSecretary,
			Body: `This is a friendly reminder that the following is still
outstanding:

{extra}

If you have already sent your payment please disregard this notice.`,
			PostScripts: []string{duesPS},
			Steps:       []Step{AssignStatement2Extra},
			Predicate:   Predicate{Name: NotPaidUp},
			Policy:      PolicyOneOnly,
		},
		&Kind{
			Name:    "penultimate_warning",
			Subject: "Club dues and fees: payment overdue",
			Author:  AuthorSecretary,
			Body: `Club records indicate that the following remains unpaid:

{extra}

The by-laws provide that membership lapses when dues are not paid by
September 1st. Please let us know if there is a problem we can help with.`,
			PostScripts: []string{duesPS},
			Steps:       []Step{AssignStatement2Extra},
			Predicate:   Predicate{Name: NotPaidUp},
			Policy:      PolicyBoth,
		},
		&Kind{
			Name:    "final_warning",
			Subject: "Club membership: final notice",
			Author:  AuthorSecretary,
			Body: `Despite earlier notices the following remains unpaid:

{extra}

Unless payment is received before the next meeting your membership
will be terminated. We would be sorry to lose you.`,
			PostScripts: []string{duesPS},
			Steps:       []Step{AssignStatement2Extra},
			Predicate:   Predicate{Name: NotPaidUp},
			Policy:      PolicyBoth,
		},
		&Kind{
			Name:    "request_inductee_payment",
			Subject: "Welcome to the Club",
			Author:  AuthorSecretary,
			Body: `Congratulations! The Executive Committee has voted you in as a
member of the Club.

Membership becomes effective once your dues of {current_dues} are
received.`,
			PostScripts: []string{duesPS},
			Steps:       []Step{SetInducteeDues},
			Predicate:   Predicate{Name: IsInductee},
			Policy:      PolicyOneOnly,
		},
		&Kind{
			Name:    "welcome2full_membership",
			Subject: "Welcome to full membership",
			Author:  AuthorSecretary,
			Body: `Your dues have been received and you are now a full member of
the Club. Welcome aboard!

You will be added to the membership email list and receive notice
of meetings and events.`,
			PostScripts: []string{attachmentPS},
			Steps:       []Step{StdMailing},
			Predicate:   Predicate{Name: IsNewMember},
			Policy:      PolicyBoth,
		},
		&Kind{
			Name:    "new_applicant_welcome",
			Subject: "Your application for membership",
			Author:  AuthorSecretary,
			Body: `Thank you for applying for membership in the Club.

To be considered for membership you will need to attend three
meetings within a year. Meetings are held on the first Friday of each
month.`,
			Steps:     []Step{StdMailing},
			Predicate: Predicate{Name: HasStatus, Arg: string(member.StatusApplied)},
			Policy:    PolicyOneOnly,
		},
		&Kind{
			Name:    "bad_address",
			Subject: "Please confirm your mailing address",
			Author:  AuthorSecretary,
			Body: `Mail sent to you has been returned. The address we have on file is:

{extra}

Please let us know of any correction.`,
			Steps:     []Step{BadAddressMailing},
			Predicate: Predicate{Name: LetterReturned},
			Policy:    PolicyEmail,
		},
		&Kind{
			Name:    "thank",
			Subject: "Thank you for your payment",
			Author:  AuthorSecretary,
			Body: `Thank you for your recent payment.

{extra}`,
			Steps:     []Step{Thank},
			Predicate: Predicate{Name: IsMember},
			Policy:    PolicyOneOnly,
		},
		&Kind{
			Name:    "testing",
			Subject: "Test mailing",
			Author:  AuthorSecretary,
			Body: `This is a test mailing addressed to {first} {last}.
Please ignore it.`,
			PostScripts: []string{"First post-script.", "Second post-script."},
			Steps:       []Step{TestingFunc},
			Predicate:   Predicate{Name: HasValidEmail},
			Policy:      PolicyBoth,
		},
	)
}
