package main

import (
	"fmt"
)

// DoctorCmd validates a config file and reports, per configured provider,
// whether it would actually be constructible (known kind, credentials
// present for anything but mock). It never makes a network call; it's a
// config sanity check, not a liveness probe.
type DoctorCmd struct{}

func (c *DoctorCmd) Run(app *appContext) error {
	names := sortedProviderNames(app.fileCfg)
	if len(names) == 0 {
		fmt.Println("no providers configured")
		return nil
	}

	anyProblem := false
	for _, name := range names {
		pc := app.fileCfg.Providers[name]
		if _, err := buildDriver(pc); err != nil {
			fmt.Printf("%s: FAIL (%v)\n", name, err)
			anyProblem = true
			continue
		}
		if pc.Kind != "mock" && pc.APIKey == "" {
			fmt.Printf("%s: FAIL (no api_key configured)\n", name)
			anyProblem = true
			continue
		}
		fmt.Printf("%s: OK (%s, model=%s)\n", name, pc.Kind, pc.Model)
	}
	if anyProblem {
		return fmt.Errorf("one or more providers are misconfigured")
	}
	return nil
}
