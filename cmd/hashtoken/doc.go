// Command hashtoken produces the bcrypt hash that protects the merge
// endpoint of the audio merger service.
//
// Usage:
//
//	hashtoken <command>
//
// Commands:
//
//	hash      Prompt for a token twice and print API_TOKEN_HASH=<hash>.
//	          Input is hidden on a terminal; piped input is read per line.
//
//	generate  Create a random 48 character token and print it together
//	          with its hash.
//
//	verify    Prompt for a token and check it against the hash given as
//	          the second argument.
//
// Notes:
//
// The service never stores the token itself. Clients send it as
// "Authorization: Bearer <token>" and the server compares it against
// API_TOKEN_HASH. Leaving API_TOKEN_HASH unset disables the check.
package main
