package debitxgo

import "time"

type Config struct {
	Database struct {
		ConnStr string `yaml:"conn_str"`
	} `yaml:"database"`
	Workflow struct {
		MaxRetries     int   `yaml:"max_retries"`
		BaseDelayMS    int64 `yaml:"base_delay_ms"`
		MaxDelayMS     int64 `yaml:"max_delay_ms"`
		PollIntervalMS int64 `yaml:"poll_interval_ms"`
		PollTimeoutMS  int64 `yaml:"poll_timeout_ms"`
		BatchLimit     int   `yaml:"batch_limit"`
	} `yaml:"workflow"`
	Seed struct {
		// owner name -> opening balance in minor units
		Accounts map[string]int64 `yaml:"accounts"`
	} `yaml:"seed"`
}

func (c *Config) WorkflowConfig() WorkflowConfig {
	return WorkflowConfig{
		MaxRetries:   c.Workflow.MaxRetries,
		BaseDelay:    time.Duration(c.Workflow.BaseDelayMS) * time.Millisecond,
		MaxDelay:     time.Duration(c.Workflow.MaxDelayMS) * time.Millisecond,
		PollInterval: time.Duration(c.Workflow.PollIntervalMS) * time.Millisecond,
		PollTimeout:  time.Duration(c.Workflow.PollTimeoutMS) * time.Millisecond,
		BatchLimit:   c.Workflow.BatchLimit,
	}
}
