package auth

import "fmt"

var issuerSuffixes = []string{"/%s/v2.0", "/%s/", "/%s"}

// issuerCandidates returns the alternative issuer urls a token of tenant tid
// may carry
func issuerCandidates(hosts []string, tid string) []string {
	if tid == "" {
		return nil
	}
	candidates := make([]string, 0, len(hosts)*len(issuerSuffixes))
	for _, h := range hosts {
		for _, s := range issuerSuffixes {
			candidates = append(candidates, h+fmt.Sprintf(s, tid))
		}
	}
	return candidates
}

func issuerAllowed(iss, expected string, hosts []string, tid string) bool {
	if iss == "" {
		return false
	}
	if iss == expected {
		return true
	}
	for _, c := range issuerCandidates(hosts, tid) {
		if iss == c {
			return true
		}
	}
	return false
}
