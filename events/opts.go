package events

type subSettings struct {
	buffer int
}

var subSettingsDefault = subSettings{
	buffer: 16,
}

// BufSize sets the buffer size of the subscription channel. Slow
// consumers, such as the websocket notifier, should use a larger
// buffer so they don't block publishers.
func BufSize(n int) SubscriptionOpt {
	return func(s interface{}) error {
		s.(*subSettings).buffer = n
		return nil
	}
}
