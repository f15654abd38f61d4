// Package doppler implements the SecretStore port on top of the
// doppler CLI. Credentials never touch the local filesystem; every
// read and write shells out to doppler, which handles auth and
// encryption.
package doppler
