/*
Package resilience provides the circuit breaker used by the VFS API client.

A breaker moves between three states:

	Closed --[ReadyToTrip]-> Open --[Timeout]-> Half-Open --[MaxRequests successes]-> Closed
	                                                |
	                                            [failure]
	                                                v
	                                              Open

Results that Settings.IsSuccessful accepts never count as failures, so the
client can keep 4xx answers from tripping the breaker.

# Usage

	breaker := resilience.New("vfs-api", resilience.Settings{
		Timeout: 10 * time.Second,
		IsSuccessful: func(err error) bool {
			return err == nil || client.IsClientError(err)
		},
	})

	err := breaker.Do(func() error {
		_, err := req.Get("/api/vfs/tree")
		return err
	})
*/
package resilience
