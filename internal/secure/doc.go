// Package secure provides memory-safe handling of the SMTP password.
//
// The password is the one credential kvreport holds for any length of
// time (from config resolution until the send at the end of a run), so
// it is kept in a memguard enclave: encrypted at rest in memory,
// mlocked against swapping, wiped on destruction.
//
// # Usage
//
//	buf := secure.NewBufferFromString(password)
//	defer buf.Destroy()
//
//	// At send time:
//	locked, err := buf.Open()
//	if err != nil {
//	    // Handle error
//	}
//	defer locked.Destroy()
//	auth := smtp.PlainAuth("", username, locked.String(), host)
//
// For complete cleanup of all memguard data at process exit, main
// calls memguard.Purge() before returning or exiting.
//
// # Platform Behavior
//
// Memory locking varies by platform (RLIMIT_MEMLOCK on Linux,
// VirtualLock on Windows). If mlock is unavailable, memguard degrades
// to standard allocation; the enclave encryption still applies.
package secure
