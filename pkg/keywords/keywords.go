// Package keywords expands $-prefixed generator tokens ($RandomName,
// $RandomEmail("domain"), $UUID, ...) inside arbitrary strings. Each
// occurrence is expanded to an independently generated value.
package keywords

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"github.com/manveru/faker"
)

var (
	reName    = regexp.MustCompile(`\$RandomName`)
	rePhone   = regexp.MustCompile(`\$RandomPhone`)
	reAddress = regexp.MustCompile(`\$RandomAddress`)
	reCompany = regexp.MustCompile(`\$RandomCompany`)
	reEmail   = regexp.MustCompile(`\$RandomEmail(?:\(\s*(?:"([^"]*)")?\s*\))?`)
	reUUID    = regexp.MustCompile(`\$UUID`)

	fakerOnce sync.Once
	fakerInst faker.Faker
)

// fakerGen lazily builds the (English) faker instance used for every
// $Random* keyword; construction can fail only on a missing locale file,
// which never happens for the built-in "en" locale.
func fakerGen() faker.Faker {
	fakerOnce.Do(func() {
		f, err := faker.New("en")
		if err != nil {
			panic(fmt.Sprintf("keywords: failed to initialize faker: %v", err))
		}
		fakerInst = f
	})
	return fakerInst
}

// Substitute expands every recognized keyword token in input, left to
// right, one occurrence per pass, until none remain. Strings with no
// '$'-token are returned unchanged (identity). Each occurrence gets its own
// freshly generated value — a single regexp.ReplaceAll pass would reuse one
// value for every match, so each token type is replaced one occurrence at a
// time instead.
func Substitute(input string) string {
	output := input
	output = replaceOneAtATime(reName, output, func() string { return fakerGen().Name() })
	output = replaceOneAtATime(rePhone, output, func() string { return fakerGen().PhoneNumber() })
	output = replaceOneAtATime(reAddress, output, func() string { return fakerGen().StreetAddress() })
	output = replaceOneAtATime(reCompany, output, func() string { return fakerGen().CompanyName() })
	output = replaceEmails(output)
	output = replaceOneAtATime(reUUID, output, func() string { return uuid.New().String() })
	return output
}

// replaceOneAtATime replaces successive matches of re in input with
// independently generated values from gen, until no match remains.
func replaceOneAtATime(re *regexp.Regexp, input string, gen func() string) string {
	output := input
	for {
		loc := re.FindStringIndex(output)
		if loc == nil {
			return output
		}
		output = output[:loc[0]] + gen() + output[loc[1]:]
	}
}

// replaceEmails handles $RandomEmail() / $RandomEmail("domain") one
// occurrence at a time so that each gets an independently generated value
// (a single ReplaceAll pass would reuse the same replacement for every
// match since the domain capture differs per occurrence).
func replaceEmails(input string) string {
	output := input
	for {
		loc := reEmail.FindStringSubmatchIndex(output)
		if loc == nil {
			return output
		}
		domain := ""
		if loc[2] >= 0 {
			domain = output[loc[2]:loc[3]]
		}
		email := randomEmail(domain)
		output = output[:loc[0]] + email + output[loc[1]:]
	}
}

func randomEmail(domain string) string {
	local := fakerGen().FirstName()
	if domain == "" {
		return fmt.Sprintf("%s@example.com", local)
	}
	return fmt.Sprintf("%s@%s", local, domain)
}
