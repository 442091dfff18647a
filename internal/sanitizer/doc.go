// Package sanitizer strips untrusted markup and redacts PII from extracted
// page HTML.
//
// Sanitization runs in three passes over a detached parse tree:
//
//  1. Remove executable and interactive elements outright (script, style,
//     iframe, noscript, form, input, button).
//  2. Flatten every element whose tag is not in the allowlist into its text
//     content, and strip attributes outside the attribute allowlist; href
//     and src values with javascript: or data: schemes are dropped.
//  3. Mask PII patterns (email addresses, card-number-like digit runs) in
//     all remaining text nodes, counting replacements per pattern.
//
// The output HTML therefore contains no blocked tags, no disallowed
// attributes, no unsafe URL schemes, and no matched PII in plaintext.
package sanitizer
